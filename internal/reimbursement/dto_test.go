package reimbursement_test

import (
	"net/url"
	"time"

	"github.com/yusufwdn/reimverse/internal"
	"github.com/yusufwdn/reimverse/internal/reimbursement"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("MonthWindow", func() {
	It("spans the calendar month in the given location", func() {
		jakarta := time.FixedZone("WIB", 7*60*60)
		// 20:00 UTC on the last day of January is already February in Jakarta
		now := time.Date(2026, time.January, 31, 20, 0, 0, 0, time.UTC)

		from, to := reimbursement.MonthWindow(now, jakarta)

		Expect(from).To(Equal(time.Date(2026, time.February, 1, 0, 0, 0, 0, jakarta)))
		Expect(to).To(Equal(time.Date(2026, time.February, 28, 23, 59, 59, 999999999, jakarta)))
	})
})

var _ = Describe("ParseAdminFilter", func() {
	fieldErrors := func(err *internal.AppError) map[string][]string {
		return err.Details.(internal.ValidationErrors).ByField()
	}

	It("reads every filter", func() {
		q := url.Values{
			"status":       {"approved"},
			"user_id":      {"7"},
			"category_id":  {"3"},
			"from_date":    {"2026-03-01"},
			"to_date":      {"2026-03-31"},
			"with_trashed": {"true"},
		}

		f, err := reimbursement.ParseAdminFilter(q, time.UTC)

		Expect(err).To(BeNil())
		Expect(f.Status).To(Equal(reimbursement.StatusApproved))
		Expect(f.UserID).To(Equal(int64(7)))
		Expect(f.CategoryID).To(Equal(int64(3)))
		Expect(*f.From).To(Equal(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)))
		Expect(*f.To).To(Equal(time.Date(2026, time.March, 31, 23, 59, 59, 999999999, time.UTC)))
		Expect(f.WithTrashed).To(BeTrue())
	})

	It("treats an empty query as no filter", func() {
		f, err := reimbursement.ParseAdminFilter(url.Values{}, time.UTC)

		Expect(err).To(BeNil())
		Expect(f.Status).To(BeEmpty())
		Expect(f.From).To(BeNil())
		Expect(f.To).To(BeNil())
		Expect(f.WithTrashed).To(BeFalse())
	})

	DescribeTable("rejects malformed filters",
		func(q url.Values, field string) {
			_, err := reimbursement.ParseAdminFilter(q, time.UTC)
			Expect(err).NotTo(BeNil())
			Expect(fieldErrors(err)).To(HaveKey(field))
		},
		Entry("unknown status", url.Values{"status": {"paid"}}, "status"),
		Entry("non numeric user", url.Values{"user_id": {"abc"}}, "user_id"),
		Entry("bad date", url.Values{"from_date": {"01/03/2026"}}, "from_date"),
		Entry("inverted range", url.Values{"from_date": {"2026-04-01"}, "to_date": {"2026-03-01"}}, "from_date"),
	)
})

var _ = Describe("SubmitDTO", func() {
	It("accepts a padded decimal amount", func() {
		dto := submitDTO(3, " 12500.755 ")
		dto.Normalize()
		Expect(dto.Validate(internal.DefaultMaxReceiptBytes)).To(BeNil())
	})

	It("flags a category id that is not a number", func() {
		dto := submitDTO(-1, "1000")
		err := dto.Validate(internal.DefaultMaxReceiptBytes)
		Expect(err).NotTo(BeNil())
		Expect(err.Details.(internal.ValidationErrors).ByField()["category_id"]).To(ConsistOf("The selected category id is invalid."))
	})

	It("requires a reason to reject", func() {
		err := reimbursement.RejectDTO{}.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.Details.(internal.ValidationErrors).ByField()["reason"]).To(ConsistOf("The reason field is required."))
	})
})
