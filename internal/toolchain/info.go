package toolchain

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// AndroidEmulator is an emulator reported by `ti info`.
type AndroidEmulator struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	SDKVersion string `json:"sdk-version"`
	Type       string `json:"type"`
}

// AndroidDevice is a connected Android device.
type AndroidDevice struct {
	ID           string `json:"id"`
	Brand        string `json:"brand"`
	Manufacturer string `json:"manufacturer"`
	Model        string `json:"model"`
	Release      string `json:"release"`
}

// IOSDevice is a connected iOS device. DeviceClass, ProductType and
// ProductVersion are not reported by every toolchain release.
type IOSDevice struct {
	UDID           string `json:"udid"`
	Name           string `json:"name"`
	DeviceClass    string `json:"deviceClass,omitempty"`
	ProductType    string `json:"productType,omitempty"`
	ProductVersion string `json:"productVersion,omitempty"`
}

// IOSSimulator is an installed iOS simulator.
type IOSSimulator struct {
	UDID       string `json:"udid"`
	DeviceType string `json:"deviceType"`
	IOS        string `json:"ios"`
	Retina     bool   `json:"retina"`
	Tall       bool   `json:"tall"`
}

// Certificate is a signing certificate from a keychain.
type Certificate struct {
	Name     string `json:"name"`
	FullName string `json:"fullname"`
	Expired  bool   `json:"expired"`
}

// ProvisioningProfile is an installed iOS provisioning profile.
type ProvisioningProfile struct {
	UUID    string `json:"uuid"`
	Name    string `json:"name"`
	AppID   string `json:"appId"`
	Expired bool   `json:"expired"`
}

func (c Certificate) expired() bool         { return c.Expired }
func (p ProvisioningProfile) expired() bool { return p.Expired }

// EnvironmentInfo is the probed snapshot of build targets and credentials
// available on this machine. Expired certificates and profiles are never
// present.
type EnvironmentInfo struct {
	AndroidEmulators         []AndroidEmulator     `json:"android_emulators"`
	AndroidDevices           []AndroidDevice       `json:"android_devices"`
	IOSDevices               []IOSDevice           `json:"ios_devices"`
	IOSSimulators            []IOSSimulator        `json:"ios_simulators"`
	DeveloperCertificates    []Certificate         `json:"developer_certificates"`
	DistributionCertificates []Certificate         `json:"distribution_certificates"`
	DevelopmentProfiles      []ProvisioningProfile `json:"development_profiles"`
	DistributionProfiles     []ProvisioningProfile `json:"distribution_profiles"`
	AdhocProfiles            []ProvisioningProfile `json:"adhoc_profiles"`
}

type keychainCerts struct {
	Developer    []Certificate `json:"developer"`
	Distribution []Certificate `json:"distribution"`
}

// infoDocument mirrors the subset of `ti info -o json` we consume.
type infoDocument struct {
	Android struct {
		Emulators []AndroidEmulator `json:"emulators"`
		Devices   []AndroidDevice   `json:"devices"`
	} `json:"android"`
	IOS struct {
		Devices    []IOSDevice                `json:"devices"`
		Simulators map[string]json.RawMessage `json:"simulators"`
		Certs      struct {
			Keychains map[string]keychainCerts `json:"keychains"`
		} `json:"certs"`
		Provisioning struct {
			Development  []ProvisioningProfile `json:"development"`
			Distribution []ProvisioningProfile `json:"distribution"`
			Adhoc        []ProvisioningProfile `json:"adhoc"`
		} `json:"provisioning"`
	} `json:"ios"`
}

// DefaultKeychain returns the login keychain path for the current user.
func DefaultKeychain() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Keychains", "login.keychain")
}

// ParseInfo decodes `ti info` JSON output. Certificates are read from the
// given keychain; an empty keychain selects the login keychain. Sections
// missing from the document produce empty lists.
func ParseInfo(data []byte, keychain string) (*EnvironmentInfo, error) {
	var doc infoDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return &EnvironmentInfo{}, fmt.Errorf("failed to parse environment info: %w", err)
	}

	info := &EnvironmentInfo{
		AndroidEmulators:     doc.Android.Emulators,
		AndroidDevices:       doc.Android.Devices,
		IOSDevices:           doc.IOS.Devices,
		IOSSimulators:        flattenSimulators(doc.IOS.Simulators),
		DevelopmentProfiles:  unexpired(doc.IOS.Provisioning.Development),
		DistributionProfiles: unexpired(doc.IOS.Provisioning.Distribution),
		AdhocProfiles:        unexpired(doc.IOS.Provisioning.Adhoc),
	}

	if certs, ok := lookupKeychain(doc.IOS.Certs.Keychains, keychain); ok {
		info.DeveloperCertificates = unexpired(certs.Developer)
		info.DistributionCertificates = unexpired(certs.Distribution)
	}
	return info, nil
}

func lookupKeychain(keychains map[string]keychainCerts, keychain string) (keychainCerts, bool) {
	if keychain == "" {
		keychain = DefaultKeychain()
	}
	if certs, ok := keychains[keychain]; ok {
		return certs, true
	}
	// macOS 10.12+ renamed the login keychain file.
	certs, ok := keychains[keychain+"-db"]
	return certs, ok
}

// flattenSimulators merges every simulator group in stable key order.
// Groups that are not a flat list are skipped.
func flattenSimulators(groups map[string]json.RawMessage) []IOSSimulator {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sims []IOSSimulator
	for _, k := range keys {
		var group []IOSSimulator
		if err := json.Unmarshal(groups[k], &group); err != nil {
			continue
		}
		sims = append(sims, group...)
	}
	return sims
}

func unexpired[T interface{ expired() bool }](in []T) []T {
	var out []T
	for _, v := range in {
		if v.expired() {
			continue
		}
		out = append(out, v)
	}
	return out
}
