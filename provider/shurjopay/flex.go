package shurjopay

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// FlexInt decodes an integer the gateway may send as a JSON number or a
// numeric string ("1011"). null and "" decode to zero.
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*f = FlexInt(n)
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v != math.Trunc(v) {
		return errors.Errorf("shurjopay: %q is not an integer", s)
	}
	*f = FlexInt(int(v))
	return nil
}

// FlexFloat decodes an amount sent as a JSON number or a numeric string.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	s, err := scalarText(data)
	if err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errors.Errorf("shurjopay: %q is not a number", s)
	}
	*f = FlexFloat(v)
	return nil
}

// scalarText returns the textual form of a JSON number, string or null
func scalarText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", errors.Wrap(err, "shurjopay: expected a number")
	}
	return n.String(), nil
}
