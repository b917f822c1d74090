package requirement

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalComponentName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"sensor_swc", "sensor_swc"},
		{"EMS_SWC", "EMS_SWC"},
		{"BrakeController", "BrakeController"},
		{"brakecontroller", "BrakeController"},
		{"wiper_controller", "WiperController"},
		{"controller", ""},
		{"gateway", "gateway_swc"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalComponentName(tt.raw))
		})
	}
}

func TestCanonicalSWCName(t *testing.T) {
	assert.Equal(t, "sensor_swc", CanonicalSWCName("sensor_swc"))
	assert.Equal(t, "BrakeController", CanonicalSWCName("BrakeController"))
	assert.Equal(t, "GatewayController", CanonicalSWCName("Gateway"))
}

func TestComponentKey(t *testing.T) {
	assert.Equal(t, ComponentKey("sensor_swc"), ComponentKey("SensorController"))
	assert.Equal(t, ComponentKey("sensor_swc"), ComponentKey("SENSOR_SWC"))
	assert.NotEqual(t, ComponentKey("sensor_swc"), ComponentKey("EMS_swc"))
}

func TestInterfaceNames(t *testing.T) {
	assert.Equal(t, "sensor_EMS_portinterface", PairInterfaceName("sensor_swc", "EMS_swc"))
	assert.Equal(t, "Brake_Wiper_portinterface", PairInterfaceName("BrakeController", "WiperController"))
	assert.Equal(t, "CANInterface", CanonicalInterfaceName("CAN"))
	assert.Equal(t, "CANInterface", CanonicalInterfaceName("CANInterface"))
	assert.Equal(t, "a_b_portinterface", CanonicalInterfaceName("a_b_portinterface"))
	assert.Equal(t, "CAN", InterfaceStem("CANInterface"))
	assert.Equal(t, "a_b", InterfaceStem("a_b_portinterface"))
}

func TestMainRunnableName(t *testing.T) {
	assert.Equal(t, "sensor_10ms", MainRunnableName("sensor_swc", &Timing{Type: TimingPeriodic, Period: 10, Unit: UnitMilliseconds}))
	assert.Equal(t, "sensor_10s", MainRunnableName("sensor_swc", &Timing{Type: TimingPeriodic, Period: 10, Unit: UnitSeconds}))
	assert.Equal(t, "sensor_Event", MainRunnableName("sensor_swc", &Timing{Type: TimingEvent}))
	assert.Equal(t, "sensor_Main", MainRunnableName("sensor_swc", &Timing{Type: TimingInit}))
	assert.Equal(t, "sensor_Main", MainRunnableName("sensor_swc", nil))
}

func TestInferBaseType(t *testing.T) {
	assert.Equal(t, "boolean", InferBaseType("DoorStatus"))
	assert.Equal(t, "boolean", InferBaseType("ErrorFlag"))
	assert.Equal(t, "uint16", InferBaseType("EngineRpm"))
	assert.Equal(t, "uint16", InferBaseType("Humidity"))
}
