package bill

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("FormatDate", func() {
	DescribeTable("dates",
		func(raw, expected string) {
			Expect(FormatDate(raw)).To(Equal(expected))
		},
		Entry("may", "2020-05-24", "24 Mai. 20"),
		Entry("single digit day", "2004-04-04", "4 Avr. 04"),
		Entry("december", "2019-12-31", "31 Déc. 19"),
		Entry("malformed", "date au mauvais format", "date au mauvais format"),
		Entry("impossible day", "2021-02-30", "2021-02-30"),
		Entry("empty", "", ""),
	)
})

var _ = Describe("FormatStatus", func() {
	It("keeps unknown statuses as is", func() {
		Expect(FormatStatus("archived")).To(Equal("archived"))
	})
})

var _ = Describe("SortAntiChronological", func() {
	It("leaves adjacent dates non-increasing", func() {
		pool := []string{"2020-05-24", "2001-01-01", "", "date au mauvais format", "2020-5-1", "1999-12-31", "2020-05-24"}
		r := rand.New(rand.NewSource(42))
		for i := 0; i < 50; i++ {
			bills := make([]*Bill, r.Intn(10))
			for j := range bills {
				bills[j] = &Bill{Date: pool[r.Intn(len(pool))]}
			}
			SortAntiChronological(bills)
			for j := 0; j+1 < len(bills); j++ {
				Expect(bills[j].Date >= bills[j+1].Date).To(BeTrue())
			}
		}
	})

	It("keeps equal dates in their original order", func() {
		bills := []*Bill{
			{ID: "a", Date: "2020-01-01"},
			{ID: "b", Date: "2021-01-01"},
			{ID: "c", Date: "2020-01-01"},
		}
		SortAntiChronological(bills)
		Expect([]string{bills[0].ID, bills[1].ID, bills[2].ID}).To(Equal([]string{"b", "a", "c"}))
	})
})
