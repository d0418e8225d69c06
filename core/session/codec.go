package session

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// All stores share one encoding so values come back with the same shape
// regardless of backend: numbers as float64, map keys as strings.
var codec = sonic.ConfigStd

func encode(values Values) ([]byte, error) {
	if values == nil {
		values = Values{}
	}
	data, err := codec.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	return data, nil
}

func decode(data []byte) (Values, error) {
	values := Values{}
	if len(data) == 0 {
		return values, nil
	}
	if err := codec.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	if values == nil {
		values = Values{}
	}
	return values, nil
}
