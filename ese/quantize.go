package ese

import (
	"github.com/northvolt/go-ese/ese/eseconf"
	"periph.io/x/conn/v3/physic"
)

// quantizeSteps bounds the search in Quantize.
const quantizeSteps = 10

// Quantize finds the highest rate at or below requested that r can produce.
//
// RoundRate only rounds up, so the floor is found by a bounded binary
// search below requested. ErrUnsatisfiable is returned when even the lowest
// rate of r is above requested.
func Quantize(r RateRounder, requested physic.Frequency) (physic.Frequency, error) {
	cur := r.RoundRate(requested)
	if cur == requested {
		return requested, nil
	}

	lowest := r.RoundRate(0)
	if lowest > requested {
		return 0, ErrUnsatisfiable
	}

	var (
		nearest   = lowest
		step      = (requested - lowest) / 2
		direction = physic.Frequency(-1)
		guess     = requested
	)
	for i := 0; i < quantizeSteps && step != 0; i++ {
		guess += step * direction
		cur = r.RoundRate(guess)

		if cur < requested && cur > nearest {
			nearest = cur
		}

		// stepped too far, turn around with half the step
		if (cur > requested && direction > 0) || (cur < requested && direction < 0) {
			direction = -direction
			step /= 2
		}
	}
	return nearest, nil
}

// programRate returns the rate to program on the bus clock for requested.
func programRate(vendor eseconf.Vendor, c RateRounder, requested physic.Frequency) (physic.Frequency, error) {
	switch vendor {
	case eseconf.VendorQualcomm:
		return Quantize(c, requested)
	case eseconf.VendorSLSI:
		// the controller halves its input clock
		return requested * 2, nil
	default:
		return requested, nil
	}
}
