package tensor

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseArgs builds a tensor from the TENSORSET argument tail:
//
//	TYPE d1 ... dn [VALUES v1 ... vk]
//
// Without VALUES the tensor is zero-filled.
func ParseArgs(args []string) (*Handle, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("wrong number of arguments for TENSORSET")
	}
	dt, err := ParseDType(args[0])
	if err != nil {
		return nil, err
	}
	var shape []int
	i := 1
	for ; i < len(args); i++ {
		if strings.EqualFold(args[i], "VALUES") {
			break
		}
		d, err := strconv.Atoi(args[i])
		if err != nil {
			return nil, fmt.Errorf("invalid dimension %q", args[i])
		}
		shape = append(shape, d)
	}
	if i == len(args) {
		return New(dt, shape, nil)
	}
	raw := args[i+1:]
	values := make([]float64, len(raw))
	for j, s := range raw {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value %q", s)
		}
		values[j] = v
	}
	return New(dt, shape, values)
}
