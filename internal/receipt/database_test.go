package receipt

import (
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltDB", func() {
	var (
		db  *BoltDB
		err error
	)

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		db, err = NewBoltDB(filepath.Join(dir, "test.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(db.Close()).To(Succeed())
	})

	newReceipt := func(id string) *Receipt {
		now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
		return &Receipt{
			ID:          id,
			OwnerID:     "owner-1",
			Amount:      10000,
			Total:       11300,
			Date:        now,
			Description: "Groceries",
			Category:    "food",
			Filename:    "stored.jpg",
			ContentType: "image/jpeg",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	Describe("SaveReceipt and GetReceipt", func() {
		It("round-trips a receipt", func() {
			r := newReceipt("receipt-1")
			Expect(db.SaveReceipt(r)).To(Succeed())

			got, err := db.GetReceipt("receipt-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal(r))
		})

		It("overwrites on re-save", func() {
			r := newReceipt("receipt-1")
			Expect(db.SaveReceipt(r)).To(Succeed())

			r.Description = "Office supplies"
			Expect(db.SaveReceipt(r)).To(Succeed())

			got, err := db.GetReceipt("receipt-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Description).To(Equal("Office supplies"))
		})

		It("returns ErrNotFound for an unknown id", func() {
			_, err := db.GetReceipt("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListReceipts", func() {
		It("returns every saved receipt", func() {
			Expect(db.SaveReceipt(newReceipt("receipt-1"))).To(Succeed())
			Expect(db.SaveReceipt(newReceipt("receipt-2"))).To(Succeed())

			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))
		})

		It("returns an empty slice for an empty database", func() {
			receipts, err := db.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(BeEmpty())
		})
	})

	Describe("DeleteReceipt", func() {
		It("removes the receipt", func() {
			Expect(db.SaveReceipt(newReceipt("receipt-1"))).To(Succeed())
			Expect(db.DeleteReceipt("receipt-1")).To(Succeed())

			_, err := db.GetReceipt("receipt-1")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})
})
