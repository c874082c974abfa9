package bill

import (
	"cmp"
	"fmt"
	"slices"
	"time"
)

const dateLayout = "2006-01-02"

var shortMonths = [...]string{
	"Jan", "Fév", "Mar", "Avr", "Mai", "Jui",
	"Jui", "Aoû", "Sep", "Oct", "Nov", "Déc",
}

// FormatDate renders a YYYY-MM-DD date as "24 Mai. 20". Anything that does
// not parse is returned unchanged.
func FormatDate(raw string) string {
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		return raw
	}
	return fmt.Sprintf("%d %s. %02d", d.Day(), shortMonths[d.Month()-1], d.Year()%100)
}

// FormatStatus returns the label shown for a bill status
func FormatStatus(s Status) string {
	switch s {
	case StatusPending:
		return "En attente"
	case StatusAccepted:
		return "Accepté"
	case StatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// SortAntiChronological orders bills most recent first by plain string
// comparison of their dates. Equal dates keep their relative order.
func SortAntiChronological(bills []*Bill) {
	slices.SortStableFunc(bills, func(a, b *Bill) int {
		return cmp.Compare(b.Date, a.Date)
	})
}
