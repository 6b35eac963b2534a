package normalizer

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// The repair rules are deliberately kept as standalone values so each can be
// exercised against literal fixtures on its own.

// noisePattern matches lines that carry no product: age-verification markers,
// bottle deposits, membership-number lines and bare multiplier lines.
var noisePattern = regexp.MustCompile(`(?i)^(AGE\s*VERIFIED|DEPOSIT|L\d+\s*MEMBER|N\d+\s*MEMBER|\d+\s*@\s*[\d.]+)`)

// qtyMarkerPattern matches a "N @ unit_price" multiplier line, e.g. "2 @ 9.99".
var qtyMarkerPattern = regexp.MustCompile(`^(\d+)\s*@\s*[\d.]+`)

// itemNumberPattern matches a leading item-number token of 4-8 characters
// that may contain OCR-confused letters in place of digits.
var itemNumberPattern = regexp.MustCompile(`^([\dOoBbIlSsGg]{4,8})\s+`)

// confusables maps the letters OCR most often misreads onto the digits they
// stand for.
var confusables = strings.NewReplacer(
	"O", "0", "o", "0",
	"B", "8", "b", "8",
	"I", "1", "l", "1",
	"S", "5", "s", "5",
	"G", "9", "g", "9",
)

// tpdMarker flags a Temporary Price Drop line ("TPD/SHOES", "TPD/1234567").
const tpdMarker = "TPD/"

// priceNoiseCutset is trimmed from the right of raw price strings: stray
// letters and symbols the extraction sometimes appends after the amount.
const priceNoiseCutset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ @#*"

// qtyTolerance is the allowed drift when checking price/qty divisibility.
var qtyTolerance = decimal.NewFromFloat(0.001)
