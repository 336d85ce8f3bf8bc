package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/tui/styles"
)

// LEDPanel renders the LEDs, the sensor and the counter side by side
type LEDPanel struct {
	styles styles.Styles
	state  protoboard.DeviceState
}

func NewLEDPanel(st styles.Styles) *LEDPanel {
	return &LEDPanel{styles: st}
}

func (lp *LEDPanel) SetState(state protoboard.DeviceState) {
	lp.state = state
}

func (lp *LEDPanel) State() protoboard.DeviceState {
	return lp.state
}

func (lp *LEDPanel) led(index int) string {
	led := lp.state.LEDs[index]

	glyph, style := "○", lp.styles.LEDOff
	if led.Value {
		glyph, style = "●", lp.styles.LEDOn
	}
	if !led.Confirmed {
		style = lp.styles.LEDPending
	}

	title := fmt.Sprintf("LED %d", index+1)
	caption := fmt.Sprintf("[%d]", index+1)
	if index == protoboard.SensorIndex {
		title = "SENSOR"
		caption = "free"
		if lp.state.SensorBlocked {
			caption = "blocked"
		}
	}

	body := lipgloss.JoinVertical(lipgloss.Center,
		title,
		style.Render(glyph),
		lp.styles.Faint.Render(caption),
	)
	return lp.styles.Box.Width(10).Align(lipgloss.Center).Render(body)
}

func (lp *LEDPanel) View() string {
	boxes := make([]string, 0, protoboard.NumLEDs+1)
	for i := range protoboard.NumLEDs {
		boxes = append(boxes, lp.led(i))
	}

	counter := lipgloss.JoinVertical(lipgloss.Center,
		"COUNTER",
		lp.styles.Counter.Render(fmt.Sprintf("%d", lp.state.Counter)),
		lp.styles.Faint.Render("[r] reset"),
	)
	boxes = append(boxes, lp.styles.Box.Width(14).Align(lipgloss.Center).Render(counter))

	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}
