package serial

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Roots for device discovery, replaced in tests
var (
	devRoot   = "/dev"
	sysfsRoot = "/sys"
)

var (
	serialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^ttyUSB\d+$`), // USB serial adapters
		regexp.MustCompile(`^ttyACM\d+$`), // USB CDC/ACM devices
		regexp.MustCompile(`^ttyS\d+$`),   // Standard serial ports
		regexp.MustCompile(`^ttyAMA\d+$`), // ARM/Raspberry Pi serial
		regexp.MustCompile(`^ttymxc\d+$`), // i.MX serial ports
		regexp.MustCompile(`^ttyO\d+$`),   // OMAP serial ports
		regexp.MustCompile(`^ttySAC\d+$`), // Samsung serial ports
		regexp.MustCompile(`^ttyTHS\d+$`), // Tegra serial ports
	}

	excludePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^tty\d+$`),  // Virtual terminals (tty1, tty2, etc.)
		regexp.MustCompile(`^console$`), // Console
		regexp.MustCompile(`^ptmx$`),    // Pseudo-terminal multiplexer
		regexp.MustCompile(`^pty.*$`),   // Pseudo-terminals
		regexp.MustCompile(`^pts/.*$`),  // Pseudo-terminal slaves
	}
)

// PortInfo describes a serial port and, for USB adapters, its descriptors
type PortInfo struct {
	Name            string
	Path            string
	Description     string
	VendorID        string
	ProductID       string
	SerialNumber    string
	InterfaceNumber string
	BusNumber       string
	DeviceNumber    string
	Manufacturer    string
	Product         string
}

// IsUSB reports whether USB descriptors were found for the port
func (i PortInfo) IsUSB() bool {
	return i.VendorID != "" || i.ProductID != ""
}

// Descriptor joins every human-readable identification field, lowercased,
// for substring matching against known adapter vendors.
func (i PortInfo) Descriptor() string {
	fields := []string{i.VendorID, i.ProductID, i.Manufacturer, i.Product, i.Description}
	return strings.ToLower(strings.Join(fields, " "))
}

// isSerialName applies the include and exclude patterns to a /dev entry
func isSerialName(name string) bool {
	for _, p := range excludePatterns {
		if p.MatchString(name) {
			return false
		}
	}
	for _, p := range serialPatterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// ListPorts returns a list of available serial ports on the system
// Filters for communication-capable devices and excludes virtual terminals
func ListPorts() ([]string, error) {
	entries, err := os.ReadDir(devRoot)
	if err != nil {
		return nil, err
	}

	var ports []string
	for _, entry := range entries {
		if !isSerialName(entry.Name()) {
			continue
		}
		fullPath := filepath.Join(devRoot, entry.Name())
		if isCharacterDevice(fullPath) {
			ports = append(ports, fullPath)
		}
	}

	sort.Strings(ports)
	return ports, nil
}

// isCharacterDevice checks if the given path is a character device
func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// GetPortInfo returns detailed information about a specific port
func GetPortInfo(portPath string) (*PortInfo, error) {
	if !isCharacterDevice(portPath) {
		return nil, ErrDeviceNotFound
	}

	name := filepath.Base(portPath)
	info := &PortInfo{
		Name:        name,
		Path:        portPath,
		Description: getPortDescription(name),
	}

	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(info)
	}

	return info, nil
}

// getPortDescription provides human-readable descriptions for different port types
func getPortDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo fills USB descriptors from sysfs. The class/tty/<name>/device
// link points at the USB interface (ttyACM) or at a per-port node below it
// (ttyUSB), so the walk goes up until a directory with idVendor appears.
func enrichUSBInfo(info *PortInfo) {
	link := filepath.Join(sysfsRoot, "class", "tty", info.Name, "device")
	resolved, err := filepath.EvalSymlinks(link)
	if err != nil {
		return
	}

	dir := resolved
	for i := 0; i < 4; i++ {
		if _, err := os.Stat(filepath.Join(dir, "idVendor")); err == nil {
			break
		}
		if ifnum := readSysfsFile(filepath.Join(dir, "bInterfaceNumber")); ifnum != "" {
			info.InterfaceNumber = ifnum
		}
		dir = filepath.Dir(dir)
	}

	info.VendorID = readSysfsFile(filepath.Join(dir, "idVendor"))
	if info.VendorID == "" {
		return
	}
	info.ProductID = readSysfsFile(filepath.Join(dir, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(dir, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(dir, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(dir, "product"))
	info.BusNumber = readSysfsFile(filepath.Join(dir, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(dir, "devnum"))
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or "" if unreadable
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SysfsLister lists ports from /dev and describes them from /sys
type SysfsLister struct{}

// Ports returns every serial port with whatever metadata sysfs exposes
func (SysfsLister) Ports() ([]PortInfo, error) {
	paths, err := ListPorts()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(paths))
	for _, path := range paths {
		info, err := GetPortInfo(path)
		if err != nil {
			continue
		}
		infos = append(infos, *info)
	}
	return infos, nil
}
