package audio

import (
	"testing"
)

func setupPortAudio(t *testing.T) {
	t.Helper()
	if err := Initialize(); err != nil {
		t.Skipf("PortAudio unavailable: %v", err)
	}
	t.Cleanup(func() {
		if err := Terminate(); err != nil {
			t.Errorf("Terminate: %v", err)
		}
	})
}

func TestGetDevices(t *testing.T) {
	setupPortAudio(t)

	devices, err := GetDevices()
	if err != nil {
		t.Fatalf("GetDevices error: %v", err)
	}
	if len(devices) == 0 {
		t.Skip("no audio devices found on this host")
	}
	for i, d := range devices {
		if d.ID != i {
			t.Errorf("device %d: ID = %d, want %d", i, d.ID, i)
		}
		if d.Name == "" {
			t.Errorf("device %d has an empty name", i)
		}
	}
}

func TestInputDeviceRejectsOutOfRangeID(t *testing.T) {
	setupPortAudio(t)

	devices, err := GetDevices()
	if err != nil {
		t.Fatalf("GetDevices error: %v", err)
	}

	if _, err := InputDevice(len(devices) + 10); err == nil {
		t.Error("expected an error for an out-of-range device ID")
	}
	if _, err := InputDevice(-2); err == nil {
		t.Error("expected an error for a negative ID other than MinDeviceID")
	}
}

func TestInputDeviceDefaultsToSystemDefault(t *testing.T) {
	setupPortAudio(t)

	devices, err := GetDevices()
	if err != nil {
		t.Fatalf("GetDevices error: %v", err)
	}
	if len(devices) == 0 {
		t.Skip("no audio devices found on this host")
	}

	dev, err := InputDevice(MinDeviceID)
	if err != nil {
		t.Fatalf("InputDevice(MinDeviceID) error: %v", err)
	}
	if dev.Name == "" {
		t.Error("default input device has an empty name")
	}
}

func TestListDevices(t *testing.T) {
	setupPortAudio(t)

	if err := ListDevices(); err != nil {
		t.Fatalf("ListDevices error: %v", err)
	}
}
