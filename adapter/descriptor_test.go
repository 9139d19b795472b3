package adapter

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nixxel-company-limited/escpos-printkit/printerr"
)

func TestDescriptorUnmarshalJSON(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
		want Descriptor
	}{
		{"File", `{"path": "/dev/usb/lp0"}`, LocalFile("/dev/usb/lp0")},
		{"Network", `{"host": "192.168.1.50", "port": 9100}`, NetworkEndpoint("192.168.1.50", 9100)},
		{"USBAuto", `{"vendor_id": 0, "product_id": 0}`, USBDevice(0, 0)},
		{"USB", `{"vendor_id": 1208, "product_id": 514}`, USBDevice(0x04b8, 0x0202)},
		{"Serial", `{"serial": "/dev/ttyS0", "baud": 19200}`, SerialPort("/dev/ttyS0", 19200)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var d Descriptor
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &d))
			assert.Equal(t, tc.want, d)
			assert.NoError(t, d.Validate())

			out, err := json.Marshal(d)
			require.NoError(t, err)
			assert.JSONEq(t, tc.raw, string(out))
		})
	}
}

func TestDescriptorValidateRejects(t *testing.T) {
	decode := func(raw string) Descriptor {
		var d Descriptor
		require.NoError(t, json.Unmarshal([]byte(raw), &d))
		return d
	}

	testCases := []struct {
		name string
		d    Descriptor
	}{
		{"Empty", decode(`{}`)},
		{"Both", decode(`{"path": "/dev/usb/lp0", "host": "10.0.0.2", "port": 9100}`)},
		{"BothWithZeroUSB", decode(`{"path": "/dev/usb/lp0", "vendor_id": 0}`)},
		{"EmptyPath", decode(`{"path": ""}`)},
		{"MissingPort", decode(`{"host": "10.0.0.2"}`)},
		{"PortRange", NetworkEndpoint("10.0.0.2", 70000)},
		{"MissingHost", decode(`{"port": 9100}`)},
		{"SerialName", SerialPort("", 9600)},
		{"SerialBaud", SerialPort("COM3", -1)},
		{"LiteralBoth", Descriptor{Kind: KindFile, Path: "/dev/usb/lp0", Host: "10.0.0.2"}},
		{"ZeroValue", Descriptor{}},
		{"UnknownKind", Descriptor{Kind: "bluetooth"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.d.Validate()
			assert.ErrorIs(t, err, printerr.ErrInvalidDevice)
			assert.True(t, printerr.IsValidation(err))
		})
	}
}

func TestDescriptorUnmarshalBadJSON(t *testing.T) {
	var d Descriptor
	err := json.Unmarshal([]byte(`{"port": "9100"}`), &d)
	assert.ErrorIs(t, err, printerr.ErrInvalidDevice)
}

func TestDescriptorYAML(t *testing.T) {
	var d Descriptor
	require.NoError(t, yaml.Unmarshal([]byte("host: printer.local\nport: 9100\n"), &d))
	assert.Equal(t, NetworkEndpoint("printer.local", 9100), d)

	out, err := yaml.Marshal(LocalFile("/dev/usb/lp0"))
	require.NoError(t, err)
	assert.Equal(t, "path: /dev/usb/lp0\n", string(out))
}

func TestDescriptorString(t *testing.T) {
	assert.Equal(t, "/dev/usb/lp0", LocalFile("/dev/usb/lp0").String())
	assert.Equal(t, "10.0.0.2:9100", NetworkEndpoint("10.0.0.2", 9100).String())
	assert.Equal(t, "usb:04b8:0202", USBDevice(0x04b8, 0x0202).String())
	assert.Equal(t, "COM3@9600", SerialPort("COM3", 0).String())
	assert.Equal(t, "<invalid device>", Descriptor{}.String())
}

func TestNewSelectsAdapter(t *testing.T) {
	testCases := []struct {
		d    Descriptor
		want Adapter
	}{
		{LocalFile("/dev/usb/lp0"), &FileAdapter{}},
		{NetworkEndpoint("10.0.0.2", 9100), &NetworkAdapter{}},
		{USBDevice(0, 0), &USBAdapter{}},
		{SerialPort("/dev/ttyUSB0", 0), &SerialAdapter{}},
	}

	for _, tc := range testCases {
		t.Run(string(tc.d.Kind), func(t *testing.T) {
			a, err := New(tc.d)
			require.NoError(t, err)
			assert.IsType(t, tc.want, a)
			assert.False(t, a.IsOpen())
		})
	}

	_, err := New(Descriptor{})
	assert.ErrorIs(t, err, printerr.ErrInvalidDevice)
}

func TestFactoriesIsACopy(t *testing.T) {
	f := Factories()
	require.Len(t, f, 4)
	delete(f, KindFile)

	_, err := New(LocalFile("/dev/usb/lp0"))
	assert.NoError(t, err)
}

func TestBackoffDelay(t *testing.T) {
	b := Backoff{Attempts: 6, Base: 100 * time.Millisecond, Max: time.Second}

	var got []time.Duration
	for i := 0; i <= 6; i++ {
		got = append(got, b.Delay(i))
	}
	assert.Equal(t, []time.Duration{
		0,
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
		time.Second,
		time.Second,
	}, got)
	assert.IsNonDecreasing(t, got)

	assert.Equal(t, 1, Backoff{}.attempts())
	assert.Equal(t, time.Duration(0), Backoff{}.Delay(3))
	assert.Positive(t, Backoff{Base: time.Hour}.Delay(70), "uncapped delays must not overflow")
}
