package sensors

import (
	"testing"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/relabs-tech/tilt_indicator/internal/config"
	"github.com/relabs-tech/tilt_indicator/internal/imu"
)

func TestLSMRatesMatchConfig(t *testing.T) {
	t.Parallel()

	require.Len(t, lsmODR, len(config.LSM303Rates))
	for _, hz := range config.LSM303Rates {
		require.Contains(t, lsmODR, hz)
	}
}

func TestLSMAxis(t *testing.T) {
	t.Parallel()

	require.Equal(t, int32(0), lsmAxis(0x00, 0x00))
	require.Equal(t, int32(1000), lsmAxis(0x80, 0x3E))  // 0x3E80 >> 4
	require.Equal(t, int32(-1000), lsmAxis(0x80, 0xC1)) // 0xC180 >> 4
	require.Equal(t, int32(-1), lsmAxis(0xF0, 0xFF))
}

func TestLSMSource(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x19, W: []byte{lsmWhoAmI}, R: []byte{lsmWhoAmIValue}},
			{Addr: 0x19, W: []byte{lsmCtrlReg1, 0x27}},
			{Addr: 0x19, W: []byte{lsmCtrlReg4, 0x88}},
			{Addr: 0x19, W: []byte{0xA8}, R: []byte{0x80, 0xC1, 0x00, 0x00, 0x80, 0x3E}},
		},
	}

	s, err := newLSMSource(bus, 0x19, lsmODR[10])
	require.NoError(t, err)

	sample, err := s.ReadSample()
	require.NoError(t, err)
	require.Equal(t, imu.Sample{Source: "lsm303", X: -1000, Y: 0, Z: 1000}, sample)

	require.NoError(t, s.Close())
}

func TestLSMSourceWrongChip(t *testing.T) {
	t.Parallel()

	bus := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x19, W: []byte{lsmWhoAmI}, R: []byte{0x41}},
		},
	}

	_, err := newLSMSource(bus, 0x19, lsmODR[10])
	require.EqualError(t, err, "lsm303: unexpected WHO_AM_I 0x41 (want 0x33)")
}
