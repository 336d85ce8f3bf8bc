package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/allbin/protoboard"
	"github.com/allbin/protoboard/internal/model"
)

// ErrUnsupportedCommand is returned for commands the panel cannot run
var ErrUnsupportedCommand = errors.New("unsupported command")

// ToCommand translates a queued web command into a session command
func ToCommand(c model.Command) (protoboard.Command, error) {
	typ := strings.ToUpper(c.Type)
	detail := strings.ToUpper(c.Detail)
	action := strings.ToUpper(c.Action)

	switch typ {
	case model.CommandTypeLED:
		index, err := ledIndex(detail)
		if err != nil {
			return protoboard.Command{}, err
		}
		switch action {
		case model.ActionOn, model.ActionOff:
			return protoboard.Command{
				Kind:   protoboard.CommandLED,
				Index:  index,
				On:     action == model.ActionOn,
				Origin: protoboard.OriginWeb,
			}, nil
		case model.ActionToggle:
			return protoboard.Command{Kind: protoboard.CommandToggle, Index: index, Origin: protoboard.OriginWeb}, nil
		}

	case model.CommandTypeSystem:
		if detail == protoboard.DetailCounter && action == model.ActionReset {
			return protoboard.Command{Kind: protoboard.CommandResetCounter, Origin: protoboard.OriginWeb}, nil
		}
	}

	return protoboard.Command{}, fmt.Errorf("%w: %s %s %s", ErrUnsupportedCommand, typ, detail, action)
}

// ledIndex parses LED1..LED3 into 0..2. The fourth LED follows the sensor
// and cannot be driven.
func ledIndex(detail string) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(detail, "LED"))
	if !strings.HasPrefix(detail, "LED") || err != nil {
		return 0, fmt.Errorf("%w: detail %q", ErrUnsupportedCommand, detail)
	}
	if n < 1 || n > protoboard.SensorIndex {
		return 0, fmt.Errorf("%w: %s", protoboard.ErrInvalidLED, detail)
	}
	return n - 1, nil
}

// truthy accepts the spellings boards use for an active state
func truthy(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		return t != 0, true
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "1", "on", "true":
			return true, true
		case "0", "off", "false":
			return false, true
		}
	}
	return false, false
}
