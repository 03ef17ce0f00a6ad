package features

import (
	"os"
	"path/filepath"
	"strings"
)

// Device は検出した入力デバイスを表す
type Device struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ScanDevices は現在接続されている入力デバイスの一覧を返す
//
// 作成済みの仮想タッチパッドも他のevent deviceと同様に列挙される
func ScanDevices() ([]Device, error) {
	return scanDevicesAt("/dev/input", "/sys/class/input")
}

func scanDevicesAt(devRoot, sysRoot string) ([]Device, error) {
	entries, err := os.ReadDir(devRoot)
	if err != nil {
		return nil, err
	}

	var devices []Device
	for _, entry := range entries {
		// event以外（mouseN, by-id等）はスキップ
		if !strings.HasPrefix(entry.Name(), "event") {
			continue
		}

		name := "(unknown)"
		raw, err := os.ReadFile(filepath.Join(sysRoot, entry.Name(), "device", "name"))
		if err == nil {
			name = strings.TrimSpace(string(raw))
		}

		devices = append(devices, Device{
			Name: name,
			Path: filepath.Join(devRoot, entry.Name()),
		})
	}

	return devices, nil
}
