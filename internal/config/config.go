package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/char5742/toccami-bridge/internal/touch"
)

// Config はアプリケーション全体の設定を表す構造体
type Config struct {
	Device   DeviceConfig   `toml:"device" json:"device"`
	TouchPad TouchPadConfig `toml:"touchpad" json:"touchpad"`
	Channel  ChannelConfig  `toml:"channel" json:"channel"`
	API      APIConfig      `toml:"api" json:"api"`
}

// DeviceConfig は仮想デバイスの設定
type DeviceConfig struct {
	Name       string `toml:"name" json:"name"`
	UinputPath string `toml:"uinput_path" json:"uinput_path"`
}

// TouchPadConfig は仮想タッチパッドの軸設定
type TouchPadConfig struct {
	MinX       int32 `toml:"min_x" json:"min_x"`
	MaxX       int32 `toml:"max_x" json:"max_x"`
	MinY       int32 `toml:"min_y" json:"min_y"`
	MaxY       int32 `toml:"max_y" json:"max_y"`
	Resolution int32 `toml:"resolution" json:"resolution"`
}

// ChannelConfig はタッチレコードを受け付けるチャネルの設定
type ChannelConfig struct {
	SocketPath string `toml:"socket_path" json:"socket_path"`
	TCPAddr    string `toml:"tcp_addr" json:"tcp_addr"`
}

// APIConfig はAPIサーバーの設定
type APIConfig struct {
	Port int `toml:"port" json:"port"`
}

// AxisConfig はタッチパッド設定をコアの軸設定へ変換する
func (c TouchPadConfig) AxisConfig() touch.AxisConfig {
	return touch.AxisConfig{
		MinX:        c.MinX,
		MaxX:        c.MaxX,
		MinY:        c.MinY,
		MaxY:        c.MaxY,
		ResolutionX: c.Resolution,
		ResolutionY: c.Resolution,
	}
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Name:       "Toccami Virtual TouchPad",
			UinputPath: "/dev/uinput",
		},
		TouchPad: TouchPadConfig{
			MinX:       0,
			MaxX:       1000,
			MinY:       0,
			MaxY:       400,
			Resolution: 10,
		},
		Channel: ChannelConfig{
			SocketPath: "/run/toccami-bridge.sock",
			TCPAddr:    "",
		},
		API: APIConfig{
			Port: 8080,
		},
	}
}

// GetDefaultConfigDir はデフォルトの設定ディレクトリを返す
func GetDefaultConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "toccami-bridge"), nil
}

// LoadConfig は設定ファイルから設定を読み込む
func LoadConfig(configPath string) (*Config, error) {
	// デフォルト設定を用意
	config := DefaultConfig()

	// ファイルが存在しない場合はデフォルト設定を保存して返す
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := SaveConfig(configPath, config); err != nil {
			return config, err
		}
		return config, nil
	}

	// 設定ファイルの読み込み
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig は設定をTOMLファイルに保存する
func SaveConfig(configPath string, config *Config) error {
	// 設定ディレクトリの作成
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	// ファイルを開く（なければ作成）
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()

	// TOML形式でエンコードして書き込み
	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}
