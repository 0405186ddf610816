package types

// Model describes a registered model.
type Model struct {
	// Name used by MODELRUN.
	// example: adder
	Name string `json:"name" example:"adder"`
	// Backend executing the model (gorgonia or llama).
	// example: gorgonia
	Backend string `json:"backend" example:"gorgonia"`
	// Source file the model was loaded from.
	// example: /home/user/models/adder.yaml
	Path string `json:"path" example:"/home/user/models/adder.yaml"`
	// Declared input names, in order.
	Inputs []string `json:"inputs"`
	// Declared output names, in order.
	Outputs []string `json:"outputs"`
}

// Tensor is the JSON form of a tensor.
type Tensor struct {
	// Element type: FLOAT, DOUBLE, INT32, INT64 or UINT8.
	// example: FLOAT
	DType string `json:"dtype" example:"FLOAT"`
	// Dimensions, outermost first.
	// example: [2,2]
	Shape []int `json:"shape" example:"2,2"`
	// Values in row-major order. Omitted values mean a zero tensor.
	// example: [1,2,3,4]
	Values []float64 `json:"values,omitempty" example:"1,2,3,4"`
}
