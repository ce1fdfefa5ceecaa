package layout

import (
	"encoding/json"
	"os"
)

// WriteDebugJSON 将分页结果输出为 JSON，便于调试或可视化页预算。
func WriteDebugJSON(p *Partition, path string) error {
	if p == nil {
		return nil
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
