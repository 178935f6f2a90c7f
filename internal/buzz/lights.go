package buzz

import "buzz-quiz-service/internal/domain"

// LightReportSize is the length of the light-control output report.
const LightReportSize = 8

// LightReport encodes the handset LEDs: byte 0 is the report id (0x00), byte 1
// carries one bit per controller.
func LightReport(on [domain.ControllerCount]bool) []byte {
	report := make([]byte, LightReportSize)
	for i, lit := range on {
		if lit {
			report[1] |= 1 << i
		}
	}
	return report
}

// Single returns a light pattern with only one controller lit.
func Single(controllerID int) [domain.ControllerCount]bool {
	var on [domain.ControllerCount]bool
	if controllerID >= 0 && controllerID < domain.ControllerCount {
		on[controllerID] = true
	}
	return on
}

// All returns a light pattern with every controller lit.
func All() [domain.ControllerCount]bool {
	return [domain.ControllerCount]bool{true, true, true, true}
}
