package wizard

import (
	"fmt"
	"strings"

	"github.com/moasq/tibuild/internal/toolchain"
)

func emulatorOption(e toolchain.AndroidEmulator) Option {
	return Option{Label: e.Name, Detail: fmt.Sprintf("Android %s (%s)", e.SDKVersion, e.Type)}
}

func androidDeviceOption(d toolchain.AndroidDevice) Option {
	return Option{
		Label:  fmt.Sprintf("%s %s (%s) Android %s", d.Brand, d.Manufacturer, d.Model, d.Release),
		Detail: d.ID,
	}
}

func simulatorOption(s toolchain.IOSSimulator) Option {
	title := s.DeviceType + " - iOS " + s.IOS
	switch {
	case s.Retina && s.Tall:
		title += " (retina tall)"
	case s.Retina:
		title += " (retina)"
	case s.Tall:
		title += " (tall)"
	}
	return Option{Label: title, Detail: s.UDID}
}

func iosDeviceOption(d toolchain.IOSDevice) Option {
	name := d.Name
	if d.DeviceClass != "" {
		name = d.DeviceClass + " - " + name
	}
	if d.ProductType != "" {
		name += " (" + d.ProductType + ")"
	}
	if d.ProductVersion != "" {
		name += " iOS " + d.ProductVersion
	}
	return Option{Label: name, Detail: d.UDID}
}

func certificateOption(c toolchain.Certificate) Option {
	return Option{Label: c.FullName, Detail: c.Name}
}

func profileOption(p toolchain.ProvisioningProfile) Option {
	return Option{Label: fmt.Sprintf("%s (%s)", p.Name, p.AppID), Detail: p.UUID}
}

func optionsOf[T any](items []T, fn func(T) Option) []Option {
	out := make([]Option, len(items))
	for i, it := range items {
		out[i] = fn(it)
	}
	return out
}

func plainOptions(labels []string) []Option {
	out := make([]Option, len(labels))
	for i, l := range labels {
		out[i] = Option{Label: l}
	}
	return out
}

// filterIOSDevices keeps devices of the given family, ignoring case since the
// toolchain reports classes like "iPhone". Universal keeps everything, as do
// devices that do not report a class.
func filterIOSDevices(devices []toolchain.IOSDevice, family string) []toolchain.IOSDevice {
	var out []toolchain.IOSDevice
	for _, d := range devices {
		if family != FamilyUniversal && d.DeviceClass != "" && !strings.EqualFold(d.DeviceClass, family) {
			continue
		}
		out = append(out, d)
	}
	return out
}
