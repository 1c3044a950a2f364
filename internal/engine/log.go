package engine

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// RespTimeStats summarizes response times across the connected population of
// one pass, in whole milliseconds. Valid is false when zero nodes were
// connected: the summary is undefined then, never zero.
type RespTimeStats struct {
	Min    int
	Avg    int
	Max    int
	StdDev int
	Valid  bool
}

// LogEntry is one immutable snapshot of a completed pass.
type LogEntry struct {
	Instant      time.Time
	Pass         uint64
	Disconnects  int
	DisconnNodes []int // 1-based node numbers, ascending
	RespTime     RespTimeStats
}

// makeLogEntry aggregates the just-completed pass. Statistics run over the
// currently connected nodes only, using the same sum-of-squares stddev
// estimator as the per-node accumulators.
func (e *Engine) makeLogEntry(now time.Time) LogEntry {
	entry := LogEntry{
		Instant: now,
		Pass:    e.passNum,
	}

	var sum, sqrSum float64
	count := 0
	min, max := 0, 0
	for i, n := range e.nodes {
		if !n.Connected {
			entry.DisconnNodes = append(entry.DisconnNodes, i+1)
			continue
		}
		rt := n.ResponseTime
		if count == 0 || rt < min {
			min = rt
		}
		if count == 0 || rt > max {
			max = rt
		}
		sum += float64(rt)
		sqrSum += float64(rt) * float64(rt)
		count++
	}
	entry.Disconnects = len(entry.DisconnNodes)

	if count > 0 {
		num := float64(count)
		m1 := sum / num
		m2 := sqrSum / num
		variance := num * (m2 - m1*m1)
		if count > 1 {
			variance /= num - 1
		}
		if variance < 0 {
			variance = 0
		}
		entry.RespTime = RespTimeStats{
			Min:    min,
			Avg:    int(m1 + 0.5),
			Max:    max,
			StdDev: int(math.Sqrt(variance) + 0.5),
			Valid:  true,
		}
	}
	return entry
}

// Format renders one log line, stable and human-readable:
// [2024.05.01 12:00:00] Pass 42: 2 disconnects (1,3), response time Min 1, Avg 2, Max 3, StdDev 0
func (entry LogEntry) Format() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(entry.Instant.Format("2006.01.02 15:04:05"))
	b.WriteString("] Pass ")
	b.WriteString(strconv.FormatUint(entry.Pass, 10))
	b.WriteString(": ")
	b.WriteString(strconv.Itoa(entry.Disconnects))
	if entry.Disconnects == 1 {
		b.WriteString(" disconnect")
	} else {
		b.WriteString(" disconnects")
	}
	if entry.Disconnects > 0 {
		b.WriteString(" (")
		for i, num := range entry.DisconnNodes {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(strconv.Itoa(num))
		}
		b.WriteString(")")
	}
	b.WriteString(", response time ")
	if entry.RespTime.Valid {
		fmt.Fprintf(&b, "Min %d, Avg %d, Max %d, StdDev %d",
			entry.RespTime.Min, entry.RespTime.Avg, entry.RespTime.Max, entry.RespTime.StdDev)
	} else {
		b.WriteString("Min -, Avg -, Max -, StdDev -")
	}
	return b.String()
}

// WriteLog exports every retained log entry, newest first, one line each.
func (e *Engine) WriteLog(w io.Writer) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	bw := bufio.NewWriter(w)
	for i := 0; ; i++ {
		entry, ok := e.log.Back(i)
		if !ok {
			break
		}
		if _, err := bw.WriteString(entry.Format() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteLogFile exports the log to path, replacing any previous file.
func (e *Engine) WriteLogFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.WriteLog(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LogBack returns the log entry i entries behind the newest (0 = newest).
func (e *Engine) LogBack(i int) (LogEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.log.Back(i)
}

// LogLen is the number of retained log entries.
func (e *Engine) LogLen() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.log.Len()
}
