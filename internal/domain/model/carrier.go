package model

import (
	"strconv"
	"strings"
)

// Carrier is the mobile-money network a Cameroonian number routes to.
// It is derived from the phone input and only drives the prompt text.
type Carrier string

const (
	CarrierUnknown Carrier = ""
	CarrierMTN     Carrier = "MTN MoMo"
	CarrierOrange  Carrier = "Orange Money"
)

var phoneSeparators = strings.NewReplacer("-", "", "(", "", ")", "")

// NormalizePhone drops separators and a leading +237 / 237 country code.
func NormalizePhone(phone string) string {
	s := strings.Join(strings.Fields(phoneSeparators.Replace(phone)), "")
	if rest, ok := strings.CutPrefix(s, "+237"); ok {
		return rest
	}
	if rest, ok := strings.CutPrefix(s, "237"); ok {
		return rest
	}
	return s
}

// DetectCarrier maps a phone number to its carrier using the local
// numbering plan: 67x, 650-654 and 680-689 are MTN; 69x and 655-659 are Orange.
func DetectCarrier(phone string) Carrier {
	digits := NormalizePhone(phone)
	if len(digits) < 3 {
		return CarrierUnknown
	}
	prefix2 := digits[:2]
	prefixNum, err := strconv.Atoi(digits[:3])
	if err != nil {
		prefixNum = -1
	}

	switch {
	case prefix2 == "67",
		prefixNum >= 650 && prefixNum <= 654,
		prefixNum >= 680 && prefixNum <= 689:
		return CarrierMTN
	case prefix2 == "69",
		prefixNum >= 655 && prefixNum <= 659:
		return CarrierOrange
	}
	return CarrierUnknown
}
