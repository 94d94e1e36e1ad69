package ml

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	torch "github.com/wangkuiyi/gotorch"
)

// BestModelFile holds the weights of the best epoch seen so far, as a gob
// encoded state dict.
const BestModelFile = "best_model.gob"

// Device returns the CUDA device when one is present, the CPU otherwise.
func Device() torch.Device {
	if torch.IsCUDAAvailable() {
		return torch.NewDevice("cuda")
	}
	return torch.NewDevice("cpu")
}

// LoadModel restores the best saved weights from dir into a freshly built
// classifier for arch and places the module on device. Weights that do not
// match the architecture are an error, not a silently fresh model.
func LoadModel(dir, arch string, classes int64, device torch.Device) (*DenseNetModule, error) {
	path := filepath.Join(dir, BestModelFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening weights file: %w", err)
	}
	defer f.Close()
	states := make(map[string]torch.Tensor)
	if err := gob.NewDecoder(f).Decode(&states); err != nil {
		return nil, fmt.Errorf("decoding weights from %s: %w", path, err)
	}
	net, err := DenseNet(arch, classes)
	if err != nil {
		return nil, err
	}
	if err := net.SetStateDict(states); err != nil {
		return nil, fmt.Errorf("restoring weights for %s: %w", arch, err)
	}
	net.To(device)
	return net, nil
}

func writeStateDict(states map[string]torch.Tensor, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gob.NewEncoder(f).Encode(states)
}
