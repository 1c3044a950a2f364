// Package ui renders the terminal dashboard: the alarm banner, the node
// table with switchable columns, and the pass-log backscroll.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/amenongit/aranealarm-go/internal/engine"
)

const (
	uiRefreshInterval = 125 * time.Millisecond
	blinkPeriod       = 250 * time.Millisecond
	fastScrollFactor  = 10
	pageSize          = 10
)

// respMode selects what the response column shows.
type respMode int

const (
	respCurrent respMode = iota
	respDelta
	respAverage
	respStdDev
	respPeak
	respModeCount
)

// durMode selects what the duration column shows.
type durMode int

const (
	durCurrent durMode = iota
	durPeakConn
	durPeakDisconn
	durModeCount
)

// UI renders the dashboard over one engine.
type UI struct {
	engine         *engine.Engine
	alarmRowHeight int
	logPath        string

	top          int // first visible node row
	dataColumn   int // 0 = response time, 1-9 = aux data index
	respMode     respMode
	durMode      durMode
	distribution bool
	fastScroll   bool
	status       string
}

// New returns a UI instance.
func New(e *engine.Engine, alarmRowHeight int, logPath string) *UI {
	if alarmRowHeight < 2 {
		alarmRowHeight = 2
	}
	return &UI{
		engine:         e,
		alarmRowHeight: alarmRowHeight,
		logPath:        logPath,
	}
}

// Run blocks until the context is cancelled or the user quits.
func (u *UI) Run(ctx context.Context) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	screen.HideCursor()
	defer screen.Fini()

	eventCh := make(chan tcell.Event, 1)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case eventCh <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	ticker := time.NewTicker(uiRefreshInterval)
	defer ticker.Stop()

	u.render(screen)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-eventCh:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if u.handleKey(ev) {
					return context.Canceled
				}
				u.render(screen)
			case *tcell.EventResize:
				screen.Sync()
			}
		case <-ticker.C:
			u.render(screen)
		}
	}
}

// handleKey dispatches one key event; it reports true when the user quits.
func (u *UI) handleKey(ev *tcell.EventKey) bool {
	shift := ev.Modifiers()&tcell.ModShift != 0
	step := 1
	if u.fastScroll {
		step = fastScrollFactor
	}

	switch ev.Key() {
	case tcell.KeyCtrlC, tcell.KeyEscape:
		return true
	case tcell.KeyUp:
		u.top -= step
	case tcell.KeyDown:
		u.top += step
	case tcell.KeyPgUp:
		if shift {
			u.engine.ScrollBack(pageSize * step)
		} else {
			u.top -= pageSize * step
		}
	case tcell.KeyPgDn:
		if shift {
			u.engine.ScrollForward(pageSize * step)
		} else {
			u.top += pageSize * step
		}
	case tcell.KeyHome:
		if shift {
			u.engine.ScrollToOldest()
		} else {
			u.top = 0
		}
	case tcell.KeyEnd:
		if shift {
			u.engine.ScrollToPresent()
		} else {
			u.top = u.engine.NodeCount() - 1
		}
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'q', 'Q':
			return true
		case 'h', 'H':
			u.engine.ToggleHush()
		case '[':
			u.engine.AdjustHushInterval(-time.Second)
		case ']':
			u.engine.AdjustHushInterval(time.Second)
		case '{':
			u.engine.AdjustHushInterval(-10 * time.Second)
		case '}':
			u.engine.AdjustHushInterval(10 * time.Second)
		case 'w', 'W':
			if err := u.engine.WriteLogFile(u.logPath); err != nil {
				u.status = "log write failed: " + err.Error()
			} else {
				u.status = "log written to " + u.logPath
			}
		case 'r', 'R':
			u.respMode = (u.respMode + 1) % respModeCount
		case 'l', 'L':
			u.durMode = (u.durMode + 1) % durModeCount
		case 'd', 'D':
			u.distribution = !u.distribution
		case 'f', 'F':
			u.fastScroll = !u.fastScroll
		case '<':
			u.jumpDisconnected(-1)
		case '>':
			u.jumpDisconnected(1)
		default:
			if r >= '0' && r <= '9' {
				u.dataColumn = int(r - '0')
			}
		}
	}
	u.clampTop()
	return false
}

func (u *UI) clampTop() {
	last := u.engine.NodeCount() - 1
	if u.top > last {
		u.top = last
	}
	if u.top < 0 {
		u.top = 0
	}
}

func (u *UI) jumpDisconnected(dir int) {
	snap := u.engine.Snapshot()
	if idx := nextDisconnected(snap.Nodes, u.top, dir); idx >= 0 {
		u.top = idx
	}
}

// nextDisconnected finds the nearest disconnected node strictly beyond from
// in direction dir, wrapping around once. Returns -1 when none exists.
func nextDisconnected(nodes []engine.NodeView, from, dir int) int {
	n := len(nodes)
	if n == 0 {
		return -1
	}
	for i := 1; i <= n; i++ {
		idx := ((from+dir*i)%n + n) % n
		if !nodes[idx].Connected {
			return idx
		}
	}
	return -1
}

func (u *UI) render(screen tcell.Screen) {
	screen.Clear()
	width, height := screen.Size()
	if width < 20 || height < u.alarmRowHeight+4 {
		screen.Show()
		return
	}

	now := time.Now()
	header := fmt.Sprintf(" aranealarm  %s  (q quit, h hush, w log, r/l/d views)",
		now.Format("2006-01-02 15:04:05"))
	drawText(screen, 0, 0, width, header, tcell.StyleDefault.Bold(true))

	snap := u.engine.Snapshot()
	u.drawAlarmBanner(screen, 1, width, snap, now)

	tableTop := 1 + u.alarmRowHeight
	footerRows := 2
	nodeRows := height - tableTop - 1 - footerRows
	u.drawNodeTable(screen, tableTop, width, nodeRows, snap)

	u.drawLogFooter(screen, height-footerRows, width, snap)
	screen.Show()
}

func (u *UI) drawAlarmBanner(screen tcell.Screen, y, width int, snap engine.Snapshot, now time.Time) {
	alarm := snap.Disconnects > 0
	style := tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	caption := "QUIET"
	if alarm {
		caption = "ALARM"
		style = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
		if blinkOff(now) {
			style = tcell.StyleDefault.Foreground(tcell.ColorGray)
		}
	}

	line := fmt.Sprintf(" %s  %s  %s", caption, formatClock(now.Sub(snap.AlarmSince)),
		disconnectCaption(snap.Disconnects))
	if snap.Hushed {
		line += fmt.Sprintf("  [hush %ds]", int(snap.HushInterval/time.Second))
	}

	mid := y + u.alarmRowHeight/2
	for row := y; row < y+u.alarmRowHeight; row++ {
		if row == mid {
			drawText(screen, 0, row, width, line, style)
		} else {
			drawText(screen, 0, row, width, "", style)
		}
	}
}

// blinkOff reports whether the blinking banner is in its dim phase.
func blinkOff(now time.Time) bool {
	return (now.UnixMilli()/blinkPeriod.Milliseconds())%2 == 1
}

func (u *UI) drawNodeTable(screen tcell.Screen, y, width, rows int, snap engine.Snapshot) {
	if rows < 1 {
		return
	}

	respTitle := respColumnTitle(u.respMode, u.dataColumn, snap.Nodes)
	head := fmt.Sprintf(" %4s %-18s %-16s %-14s %-12s %6s %s",
		"num", "address", "name", respTitle, durColumnTitle(u.durMode), "issues", historyColumnTitle(u.distribution))
	drawText(screen, 0, y, width, head, tcell.StyleDefault.Bold(true))

	fixed := 1 + 4 + 1 + 18 + 1 + 16 + 1 + 14 + 1 + 12 + 1 + 6 + 1
	tailWidth := width - fixed
	for i := 0; i < rows-1; i++ {
		idx := u.top + i
		if idx >= len(snap.Nodes) {
			break
		}
		v := snap.Nodes[idx]
		style := tcell.StyleDefault.Foreground(tcell.ColorGreen)
		if !v.Connected {
			style = tcell.StyleDefault.Foreground(tcell.ColorRed)
		}

		tail := ""
		if tailWidth > 0 {
			if u.distribution {
				tail = distributionBar(v.HistoryConn, v.HistoryLen, tailWidth)
			} else {
				tail = u.historyDots(idx, snap.Behind, tailWidth)
			}
		}
		line := fmt.Sprintf(" %4d %-18s %-16s %-14s %-12s %6d %s",
			v.Number,
			padOrTrim(v.Address, 18),
			padOrTrim(v.Name, 16),
			padOrTrim(respCell(u.respMode, u.dataColumn, v), 14),
			padOrTrim(durCell(u.durMode, v), 12),
			v.Issues,
			tail)
		drawText(screen, 0, y+1+i, width, line, style)
	}
}

// historyDots renders one node's recent connectivity, newest on the left,
// shifted into the past by the backscroll depth.
func (u *UI) historyDots(nodeIdx, behind, width int) string {
	var b strings.Builder
	for col := 0; col < width; col++ {
		conn, known := u.engine.HistoryAt(nodeIdx, behind+col)
		switch {
		case !known:
			b.WriteByte(' ')
		case conn:
			b.WriteByte('.')
		default:
			b.WriteByte('!')
		}
	}
	return b.String()
}

func (u *UI) drawLogFooter(screen tcell.Screen, y, width int, snap engine.Snapshot) {
	line := " log: (empty)"
	if entry, ok := u.engine.LogBack(snap.Behind); ok {
		line = " log: " + entry.Format()
		if snap.Behind > 0 {
			line += fmt.Sprintf("  (%d behind)", snap.Behind)
		}
	}
	drawText(screen, 0, y, width, line, tcell.StyleDefault.Foreground(tcell.ColorGray))

	status := u.status
	if status == "" {
		status = fmt.Sprintf(" pass %d  fast-scroll %v  keys: 0-9 data, </> disconnected, Shift+PgUp/PgDn log",
			snap.Pass, u.fastScroll)
	}
	drawText(screen, 0, y+1, width, status, tcell.StyleDefault.Foreground(tcell.ColorGray))
}

// respColumnTitle names the response/data column for the current mode.
func respColumnTitle(mode respMode, dataColumn int, nodes []engine.NodeView) string {
	if dataColumn > 0 {
		for _, v := range nodes {
			if dataColumn-1 < len(v.Data) {
				return v.Data[dataColumn-1].Name
			}
		}
		return fmt.Sprintf("data %d", dataColumn)
	}
	switch mode {
	case respDelta:
		return "delta ms"
	case respAverage:
		return "avg ms"
	case respStdDev:
		return "stddev ms"
	case respPeak:
		return "peak ms"
	default:
		return "resp ms"
	}
}

func durColumnTitle(mode durMode) string {
	switch mode {
	case durPeakConn:
		return "peak conn"
	case durPeakDisconn:
		return "peak disc"
	default:
		return "duration"
	}
}

func historyColumnTitle(distribution bool) string {
	if distribution {
		return "connected share"
	}
	return "history"
}

// respCell renders the response/data column for one node.
func respCell(mode respMode, dataColumn int, v engine.NodeView) string {
	if dataColumn > 0 {
		if dataColumn-1 < len(v.Data) {
			return v.Data[dataColumn-1].Value
		}
		return "-"
	}
	switch mode {
	case respDelta:
		if v.ResponseTime == engine.Unset || v.PrevResponseTime == engine.Unset {
			return "-"
		}
		return fmt.Sprintf("%+d", v.ResponseTime-v.PrevResponseTime)
	case respAverage:
		if !v.HasAvg {
			return "-"
		}
		return fmt.Sprintf("%.1f", v.Average)
	case respStdDev:
		if !v.HasStdDev {
			return "-"
		}
		return fmt.Sprintf("%.1f", v.StdDev)
	case respPeak:
		if v.PeakResponseTime == engine.Unset {
			return "-"
		}
		return fmt.Sprintf("%d", v.PeakResponseTime)
	default:
		if v.ResponseTime == engine.Unset {
			return "-"
		}
		return fmt.Sprintf("%d%s", v.ResponseTime, trendMarker(v.ResponseTime, v.PrevResponseTime))
	}
}

// trendMarker compares the current response time against the previous one.
func trendMarker(cur, prev int) string {
	if prev == engine.Unset {
		return ""
	}
	switch {
	case cur > prev:
		return "+"
	case cur < prev:
		return "-"
	default:
		return "="
	}
}

// durCell renders the duration column for one node.
func durCell(mode durMode, v engine.NodeView) string {
	switch mode {
	case durPeakConn:
		if v.PeakConnDuration < 0 {
			return "-"
		}
		return formatClock(v.PeakConnDuration)
	case durPeakDisconn:
		if v.PeakDisconnDuration < 0 {
			return "-"
		}
		return formatClock(v.PeakDisconnDuration)
	default:
		return formatClock(v.CurrentDuration)
	}
}

// formatClock renders a duration as HHH:MM:SS, clamped at zero.
func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%03d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func disconnectCaption(n int) string {
	if n == 1 {
		return "1 disconnect"
	}
	return fmt.Sprintf("%d disconnects", n)
}

// distributionBar renders the connected share of populated history slots.
func distributionBar(conn, populated, width int) string {
	if width <= 0 {
		return ""
	}
	if populated <= 0 {
		return strings.Repeat(" ", width)
	}
	share := float64(conn) / float64(populated)
	label := fmt.Sprintf("%5.1f%% ", share*100)
	barWidth := width - len(label)
	if barWidth <= 0 {
		return padOrTrim(label, width)
	}
	units := int(share*float64(barWidth) + 0.5)
	if units > barWidth {
		units = barWidth
	}
	return label + strings.Repeat("#", units) + strings.Repeat(" ", barWidth-units)
}

func drawText(screen tcell.Screen, x, y, width int, text string, style tcell.Style) {
	if width <= 0 {
		return
	}
	col := x
	for _, r := range text {
		if col >= x+width {
			return
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
	for col < x+width {
		screen.SetContent(col, y, ' ', nil, style)
		col++
	}
}

func padOrTrim(value string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(value)
	if len(runes) > width {
		return string(runes[:width])
	}
	if len(runes) < width {
		return value + strings.Repeat(" ", width-len(runes))
	}
	return value
}
