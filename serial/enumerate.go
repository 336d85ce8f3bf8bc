package serial

import (
	"path/filepath"
	"sort"

	"go.bug.st/serial/enumerator"
)

// EnumeratorLister lists ports through go.bug.st/serial/enumerator
type EnumeratorLister struct{}

// Ports returns the detailed port list reported by the enumerator
func (EnumeratorLister) Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}

	infos := make([]PortInfo, 0, len(details))
	for _, d := range details {
		infos = append(infos, fromPortDetails(d))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func fromPortDetails(d *enumerator.PortDetails) PortInfo {
	name := filepath.Base(d.Name)
	info := PortInfo{
		Name:        name,
		Path:        d.Name,
		Description: getPortDescription(name),
	}
	if d.IsUSB {
		info.VendorID = d.VID
		info.ProductID = d.PID
		info.SerialNumber = d.SerialNumber
		info.Product = d.Product
	}
	return info
}
