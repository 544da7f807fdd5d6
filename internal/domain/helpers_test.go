package domain

import "github.com/m04kA/SMC-AvailabilityService/pkg/types"

func timeString(s string) types.TimeString {
	return types.TimeString(s)
}
