package buzzhid

import (
	"fmt"
	"runtime"
	"sync"

	"buzz-quiz-service/internal/app"
	"buzz-quiz-service/internal/buzz"
	"buzz-quiz-service/internal/domain"
	"github.com/rafaelmartins/usbhid"
)

// SonyVendorID is the USB vendor of every Buzz dongle.
const SonyVendorID = 0x054c

// Known Buzz dongle products: wired and wireless.
var buzzProducts = []uint16{0x1000, 0x0002}

// Config selects the dongle. Zero values fall back to Sony and the known
// Buzz products.
type Config struct {
	VendorID  uint16
	ProductID uint16
}

// hidDevice is the part of *usbhid.Device the connector uses.
type hidDevice interface {
	VendorId() uint16
	ProductId() uint16
	Path() string
	Manufacturer() string
	Product() string
	Open(lock bool) error
	Close() error
	GetInputReport() (byte, []byte, error)
	SetOutputReport(reportID byte, data []byte) error
}

// Connector opens the best matching Buzz dongle.
type Connector struct {
	cfg       Config
	goos      string
	enumerate func() ([]hidDevice, error)
}

func NewConnector(cfg Config) *Connector {
	return &Connector{cfg: cfg, goos: runtime.GOOS, enumerate: enumerateHID}
}

func enumerateHID() ([]hidDevice, error) {
	devices, err := usbhid.Enumerate(func(*usbhid.Device) bool { return true })
	if err != nil {
		return nil, err
	}
	out := make([]hidDevice, 0, len(devices))
	for _, d := range devices {
		out = append(out, d)
	}
	return out, nil
}

// Connect opens the dongle with an exclusive lock. Known Buzz products win
// over other devices the config accepts.
func (c *Connector) Connect() (app.Device, error) {
	if !supported(c.goos) {
		return nil, domain.ErrUnsupportedPlatform
	}
	devices, err := c.enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	dev := c.cfg.choose(devices)
	if dev == nil {
		return nil, domain.ErrNoDevice
	}
	if err := dev.Open(true); err != nil {
		return nil, fmt.Errorf("open %s: %w", dev.Path(), err)
	}
	return &Device{dev: dev}, nil
}

// Info describes an attached HID device.
type Info struct {
	Path         string
	VendorID     uint16
	ProductID    uint16
	Manufacturer string
	Product      string
	Buzz         bool
}

// List returns every HID device, marking the ones that look like a Buzz dongle.
func (c *Connector) List() ([]Info, error) {
	if !supported(c.goos) {
		return nil, domain.ErrUnsupportedPlatform
	}
	devices, err := c.enumerate()
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}
	out := make([]Info, 0, len(devices))
	for _, d := range devices {
		out = append(out, Info{
			Path:         d.Path(),
			VendorID:     d.VendorId(),
			ProductID:    d.ProductId(),
			Manufacturer: d.Manufacturer(),
			Product:      d.Product(),
			Buzz:         c.cfg.matches(d.VendorId(), d.ProductId()),
		})
	}
	return out, nil
}

// Device is an open dongle.
type Device struct {
	dev hidDevice

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// ReadReport blocks until the next input report arrives.
func (d *Device) ReadReport() ([]byte, error) {
	_, data, err := d.dev.GetInputReport()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// SetLights sends the light-control output report.
func (d *Device) SetLights(on [domain.ControllerCount]bool) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	return d.dev.SetOutputReport(0, buzz.LightReport(on))
}

// Close releases the device. Safe to call more than once.
func (d *Device) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.dev.Close()
	})
	return d.closeErr
}

// choose picks the device to open: an accepted known Buzz product first,
// then any other accepted device.
func (c Config) choose(devices []hidDevice) hidDevice {
	var fallback hidDevice
	for _, d := range devices {
		if !c.matches(d.VendorId(), d.ProductId()) {
			continue
		}
		if d.VendorId() == SonyVendorID && isBuzzProduct(d.ProductId()) {
			return d
		}
		if fallback == nil {
			fallback = d
		}
	}
	return fallback
}

func isBuzzProduct(productID uint16) bool {
	for _, p := range buzzProducts {
		if productID == p {
			return true
		}
	}
	return false
}

func (c Config) matches(vendorID, productID uint16) bool {
	vendor := c.VendorID
	if vendor == 0 {
		vendor = SonyVendorID
	}
	if vendorID != vendor {
		return false
	}
	if c.ProductID != 0 {
		return productID == c.ProductID
	}
	if c.VendorID != 0 {
		return true
	}
	return isBuzzProduct(productID)
}

func supported(goos string) bool {
	switch goos {
	case "linux", "darwin", "windows":
		return true
	}
	return false
}
