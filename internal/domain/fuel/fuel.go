package fuel

import (
	"math"
	"strings"
)

// Grade identifies one of the four products the station sells.
type Grade string

const (
	NaftaSuper    Grade = "nafta_super"
	NaftaPremium  Grade = "nafta_premium"
	Gasoil        Grade = "gasoil"
	GasoilPremium Grade = "gasoil_premium"
)

// Grades returns the fixed product set in display order.
func Grades() []Grade {
	return []Grade{NaftaSuper, NaftaPremium, Gasoil, GasoilPremium}
}

func (g Grade) Valid() bool {
	switch g {
	case NaftaSuper, NaftaPremium, Gasoil, GasoilPremium:
		return true
	}
	return false
}

func (g Grade) IsDiesel() bool {
	return strings.HasPrefix(string(g), "gasoil")
}

// Alpha is the linear volumetric expansion coefficient per °C
// (naftas ~0.001, gasoil ~0.0008).
func Alpha(g Grade) float64 {
	if g.IsDiesel() {
		return 0.00080
	}
	return 0.00100
}

// NormalizeTo15C corrects an observed volume to the 15°C reference:
// L15 = Lobs * (1 - α * (T - 15)). With no usable temperature the observed
// volume is returned as-is. The result is never negative and is rounded to
// two decimals.
func NormalizeTo15C(observedLitres float64, tempC *float64, g Grade) float64 {
	if tempC == nil || math.IsNaN(*tempC) || math.IsInf(*tempC, 0) {
		return observedLitres
	}
	corr := 1 - Alpha(g)*(*tempC-15)
	v := observedLitres * corr
	if v <= 0 {
		return 0
	}
	return math.Round(v*100) / 100
}
