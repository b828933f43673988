package onnx

import (
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var (
	envMu    sync.Mutex
	envUsers int
)

// InitEnvironment loads the shared onnxruntime library once per process.
// Every successful call must be paired with DestroyEnvironment.
func InitEnvironment(libPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if envUsers > 0 {
		envUsers++
		return nil
	}

	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("onnxruntime library %s: %w", libPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime environment: %w", err)
	}

	envUsers = 1
	return nil
}

// DestroyEnvironment releases the runtime when the last user is done.
func DestroyEnvironment() error {
	envMu.Lock()
	defer envMu.Unlock()

	if envUsers == 0 {
		return nil
	}

	envUsers--
	if envUsers > 0 {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return fmt.Errorf("destroy onnxruntime environment: %w", err)
	}
	return nil
}

// NewSession opens a dynamically shaped session on modelPath. threads <= 0
// keeps the runtime defaults.
func NewSession(modelPath string, inputs, outputs []string, threads int) (*ort.DynamicAdvancedSession, error) {
	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating session options: %w", err)
	}
	defer options.Destroy()

	if threads > 0 {
		if err := options.SetIntraOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("error setting intra-op threads: %w", err)
		}
		if err := options.SetInterOpNumThreads(threads); err != nil {
			return nil, fmt.Errorf("error setting inter-op threads: %w", err)
		}
	}

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputs, outputs, options)
	if err != nil {
		return nil, fmt.Errorf("error creating session for %s: %w", modelPath, err)
	}

	return session, nil
}

// Run executes session with freshly allocated float32 tensors. Input and
// output tensors are destroyed before returning; outputs are copied out.
func Run(session *ort.DynamicAdvancedSession, inputShape ort.Shape, input []float32, outputShapes []ort.Shape) ([][]float32, error) {
	inputTensor, err := ort.NewTensor(inputShape, input)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := make([]*ort.Tensor[float32], 0, len(outputShapes))
	defer func() {
		for _, t := range outputs {
			t.Destroy()
		}
	}()

	outputValues := make([]ort.ArbitraryTensor, 0, len(outputShapes))
	for _, shape := range outputShapes {
		t, err := ort.NewEmptyTensor[float32](shape)
		if err != nil {
			return nil, fmt.Errorf("error creating output tensor %v: %w", shape, err)
		}
		outputs = append(outputs, t)
		outputValues = append(outputValues, t)
	}

	if err := session.Run([]ort.ArbitraryTensor{inputTensor}, outputValues); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	results := make([][]float32, len(outputs))
	for i, t := range outputs {
		data := t.GetData()
		results[i] = make([]float32, len(data))
		copy(results[i], data)
	}
	return results, nil
}

// ModelIO lists the input and output names and shapes declared by a model file.
type ModelIO struct {
	Inputs  []TensorInfo
	Outputs []TensorInfo
}

// TensorInfo describes one model input or output. Dynamic dimensions are -1.
type TensorInfo struct {
	Name  string
	Shape []int64
}

// Inspect reads the declared inputs and outputs of modelPath. The runtime
// environment must already be initialized.
func Inspect(modelPath string) (*ModelIO, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", modelPath, err)
	}

	info := &ModelIO{}
	for _, in := range inputs {
		info.Inputs = append(info.Inputs, TensorInfo{Name: in.Name, Shape: []int64(in.Dimensions)})
	}
	for _, out := range outputs {
		info.Outputs = append(info.Outputs, TensorInfo{Name: out.Name, Shape: []int64(out.Dimensions)})
	}
	return info, nil
}
