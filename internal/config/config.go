package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/moasq/appcenter-postbuild/internal/secrets"
)

// SettingsFileName is the settings file written next to the SDK assets.
const SettingsFileName = "AppCenterSettings.yaml"

// ScriptingBackend selects how the host compiled managed code.
type ScriptingBackend string

const (
	BackendIL2CPP ScriptingBackend = "il2cpp"
	BackendDotNet ScriptingBackend = "dotnet"
)

// UIFramework is the UWP project flavour the host generated.
type UIFramework string

const (
	UIXAML UIFramework = "xaml"
	UID3D  UIFramework = "d3d"
)

// Settings mirrors AppCenterSettings.yaml.
type Settings struct {
	UsePush              bool             `yaml:"use_push"`
	UseDistribute        bool             `yaml:"use_distribute"`
	IOSAppSecret         string           `yaml:"ios_app_secret"`
	ProductName          string           `yaml:"product_name"`
	TileShortName        string           `yaml:"tile_short_name"`
	ApplicationID        string           `yaml:"application_id"`
	ScriptingBackend     ScriptingBackend `yaml:"scripting_backend"`
	UIFramework          UIFramework      `yaml:"uwp_build_type"`
	ExportAndroidProject bool             `yaml:"export_android_project"`
	AndroidHookCommand   string           `yaml:"android_hook"`
	SDKRoot              string           `yaml:"sdk_root"`
	ToolchainPath        string           `yaml:"toolchain_path"`
	RestoreLauncher      string           `yaml:"restore_launcher"`
	RestoreTimeoutSecs   int              `yaml:"restore_timeout_seconds"`
}

// FeatureFlags is the read-only snapshot handed to each platform strategy.
type FeatureFlags struct {
	UsePush              bool
	UseDistribute        bool
	PushAvailable        bool
	DistributeAvailable  bool
	IOSAppSecret         string
	ProductName          string
	TileShortName        string
	ApplicationID        string
	ScriptingBackend     ScriptingBackend
	UIFramework          UIFramework
	ExportAndroidProject bool
	AndroidHookCommand   string
	SDKRoot              string
	ToolchainPath        string
	RestoreLauncher      string
	RestoreTimeout       time.Duration
}

// PushEnabled reports whether push is requested and its SDK module is installed.
func (f FeatureFlags) PushEnabled() bool {
	return f.UsePush && f.PushAvailable
}

// DistributeEnabled reports whether distribute is requested and installed.
func (f FeatureFlags) DistributeEnabled() bool {
	return f.UseDistribute && f.DistributeAvailable
}

// Defaults returns settings used when no file is present.
func Defaults() *Settings {
	return &Settings{
		ScriptingBackend:   BackendIL2CPP,
		UIFramework:        UID3D,
		SDKRoot:            "Assets",
		RestoreTimeoutSecs: 600,
	}
}

// Load reads the settings file at path over Defaults, then applies a
// .env file from the same directory and APPCENTER_* environment
// variables. A missing file is an error only when required is set.
func Load(path string, required bool) (*Settings, error) {
	s := Defaults()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, s); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))
	if err := s.applyEnv(); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// FindSettings returns the settings path for a Unity project directory:
// Assets/AppCenter/AppCenterSettings.yaml when it exists, otherwise the
// file at the project root.
func FindSettings(projectDir string) string {
	nested := filepath.Join(projectDir, "Assets", "AppCenter", SettingsFileName)
	if _, err := os.Stat(nested); err == nil {
		return nested
	}
	return filepath.Join(projectDir, SettingsFileName)
}

func (s *Settings) applyEnv() error {
	strs := map[string]*string{
		"APPCENTER_IOS_APP_SECRET":   &s.IOSAppSecret,
		"APPCENTER_PRODUCT_NAME":     &s.ProductName,
		"APPCENTER_TILE_SHORT_NAME":  &s.TileShortName,
		"APPCENTER_APPLICATION_ID":   &s.ApplicationID,
		"APPCENTER_ANDROID_HOOK":     &s.AndroidHookCommand,
		"APPCENTER_SDK_ROOT":         &s.SDKRoot,
		"APPCENTER_TOOLCHAIN_PATH":   &s.ToolchainPath,
		"APPCENTER_RESTORE_LAUNCHER": &s.RestoreLauncher,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	bools := map[string]*bool{
		"APPCENTER_USE_PUSH":               &s.UsePush,
		"APPCENTER_USE_DISTRIBUTE":         &s.UseDistribute,
		"APPCENTER_EXPORT_ANDROID_PROJECT": &s.ExportAndroidProject,
	}
	for key, dst := range bools {
		if v, ok := os.LookupEnv(key); ok {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	if v, ok := os.LookupEnv("APPCENTER_SCRIPTING_BACKEND"); ok {
		s.ScriptingBackend = ScriptingBackend(v)
	}
	if v, ok := os.LookupEnv("APPCENTER_UWP_BUILD_TYPE"); ok {
		s.UIFramework = UIFramework(v)
	}
	if v, ok := os.LookupEnv("APPCENTER_RESTORE_TIMEOUT_SECONDS"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("APPCENTER_RESTORE_TIMEOUT_SECONDS: %w", err)
		}
		s.RestoreTimeoutSecs = n
	}
	return nil
}

// Validate normalizes enum casing and rejects unknown values.
func (s *Settings) Validate() error {
	s.ScriptingBackend = ScriptingBackend(strings.ToLower(strings.TrimSpace(string(s.ScriptingBackend))))
	switch s.ScriptingBackend {
	case BackendIL2CPP, BackendDotNet:
	case "winrtdotnet", ".net":
		s.ScriptingBackend = BackendDotNet
	default:
		return fmt.Errorf("unknown scripting_backend %q (want il2cpp or dotnet)", s.ScriptingBackend)
	}

	s.UIFramework = UIFramework(strings.ToLower(strings.TrimSpace(string(s.UIFramework))))
	switch s.UIFramework {
	case UIXAML, UID3D:
	default:
		return fmt.Errorf("unknown uwp_build_type %q (want xaml or d3d)", s.UIFramework)
	}

	if s.RestoreTimeoutSecs < 0 {
		return fmt.Errorf("restore_timeout_seconds must not be negative")
	}
	return nil
}

// Flags resolves the snapshot used for one post-build run. SDK module
// availability is probed under SDKRoot, and an empty iOS app secret is
// looked up in store.
func (s *Settings) Flags(store secrets.SecretStore) FeatureFlags {
	secret := s.IOSAppSecret
	if secret == "" && store != nil && s.ProductName != "" {
		if v, err := store.Get(secrets.SecretKey("ios", s.ProductName, secrets.FieldAppSecret)); err == nil {
			secret = v
		}
	}

	tile := s.TileShortName
	if tile == "" {
		tile = s.ProductName
	}

	return FeatureFlags{
		UsePush:              s.UsePush,
		UseDistribute:        s.UseDistribute,
		PushAvailable:        ModuleInstalled(s.SDKRoot, "Push"),
		DistributeAvailable:  ModuleInstalled(s.SDKRoot, "Distribute"),
		IOSAppSecret:         secret,
		ProductName:          s.ProductName,
		TileShortName:        tile,
		ApplicationID:        s.ApplicationID,
		ScriptingBackend:     s.ScriptingBackend,
		UIFramework:          s.UIFramework,
		ExportAndroidProject: s.ExportAndroidProject,
		AndroidHookCommand:   s.AndroidHookCommand,
		SDKRoot:              s.SDKRoot,
		ToolchainPath:        s.ToolchainPath,
		RestoreLauncher:      s.RestoreLauncher,
		RestoreTimeout:       time.Duration(s.RestoreTimeoutSecs) * time.Second,
	}
}

// ModuleInstalled returns true if the SDK module directory exists
// under sdkRoot (AppCenter/Plugins/AppCenterSDK/<module>).
func ModuleInstalled(sdkRoot, module string) bool {
	info, err := os.Stat(filepath.Join(sdkRoot, "AppCenter", "Plugins", "AppCenterSDK", module))
	return err == nil && info.IsDir()
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
