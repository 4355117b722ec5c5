package extract

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestExtract(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extract Suite")
}

var _ = Describe("Extract", func() {
	var (
		lines []string
		data  ParsedReceipt
	)

	JustBeforeEach(func() {
		data = Extract(lines)
	})

	When("extracting a full grocery receipt", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"MILK 2% 1L",
				"BREAD WHITE",
				"SUBTOTAL",
				"15.50",
				"HST 13%",
				"2.02",
				"TOTAL",
				"17.52",
				"DATE/TIME",
				"25/12/23 14:30:00",
			}
		})

		It("takes the first business-looking line as the merchant", func() {
			Expect(data.MerchantName).To(Equal("FRESHMART GROCERY"))
		})

		It("takes the line under the merchant as the address", func() {
			Expect(data.Address).To(HaveValue(Equal("123 MAIN ST")))
		})

		It("collects item lines until the subtotal line", func() {
			Expect(data.Items).To(Equal([]string{"MILK 2% 1L", "BREAD WHITE"}))
		})

		It("reads the subtotal from the following line", func() {
			Expect(data.Subtotal).To(HaveValue(Equal(15.50)))
		})

		It("reads the tax from the following line", func() {
			Expect(data.Tax).To(HaveValue(Equal(2.02)))
		})

		It("reads the total from the following line", func() {
			Expect(data.Total).To(HaveValue(Equal(17.52)))
		})

		It("normalizes the date to YYYY-MM-DD with a 20YY year", func() {
			Expect(data.Date).To(HaveValue(Equal("2023-12-25")))
		})

		It("keeps the time as HH:MM:SS", func() {
			Expect(data.Time).To(HaveValue(Equal("14:30:00")))
		})
	})

	When("the input is empty", func() {
		BeforeEach(func() {
			lines = nil
		})

		It("returns the fallback merchant name", func() {
			Expect(data.MerchantName).To(Equal(UnknownMerchant))
		})

		It("leaves every other field absent", func() {
			Expect(data.Address).To(BeNil())
			Expect(data.Items).To(BeEmpty())
			Expect(data.Subtotal).To(BeNil())
			Expect(data.Tax).To(BeNil())
			Expect(data.Total).To(BeNil())
			Expect(data.Date).To(BeNil())
			Expect(data.Time).To(BeNil())
		})
	})

	When("the input is only empty and whitespace lines", func() {
		BeforeEach(func() {
			lines = []string{"", "   ", "\t", ""}
		})

		It("returns the fallback merchant name and no items", func() {
			Expect(data.MerchantName).To(Equal(UnknownMerchant))
			Expect(data.Items).To(BeEmpty())
		})
	})

	When("no line in the header looks like a business name", func() {
		BeforeEach(func() {
			lines = []string{
				"123 Not A Name",
				"some other line",
				"more text here",
				"still nothing",
				"nope 42",
				"TOTAL 9.99",
			}
		})

		It("falls back to Unknown instead of the first line", func() {
			Expect(data.MerchantName).To(Equal(UnknownMerchant))
		})

		It("still scans for keyword fields", func() {
			Expect(data.Total).To(HaveValue(Equal(9.99)))
		})
	})

	When("the merchant name is not on the first line", func() {
		BeforeEach(func() {
			lines = []string{
				"(scan noise)",
				"CORNER SHOP & CAFE",
				"44 KING ST W",
				"COFFEE BEANS",
			}
		})

		It("picks the first matching line within the header window", func() {
			Expect(data.MerchantName).To(Equal("CORNER SHOP & CAFE"))
		})

		It("takes the next line as the address", func() {
			Expect(data.Address).To(HaveValue(Equal("44 KING ST W")))
		})

		It("collects items after the address", func() {
			Expect(data.Items).To(Equal([]string{"COFFEE BEANS"}))
		})
	})

	When("the amount sits on the keyword line itself", func() {
		BeforeEach(func() {
			lines = []string{
				"DELI MART",
				"9 ELM AVE",
				"SUBTOTAL 10.00",
				"TAX 1.30",
				"TOTAL 11.30",
			}
		})

		It("reads each amount from its own line", func() {
			Expect(data.Subtotal).To(HaveValue(Equal(10.00)))
			Expect(data.Tax).To(HaveValue(Equal(1.30)))
			Expect(data.Total).To(HaveValue(Equal(11.30)))
		})
	})

	When("an amount uses a comma as the decimal separator", func() {
		BeforeEach(func() {
			lines = []string{
				"DELI MART",
				"9 ELM AVE",
				"TOTAL 12,34",
			}
		})

		It("normalizes the comma to a dot", func() {
			Expect(data.Total).To(HaveValue(Equal(12.34)))
		})
	})

	When("several total lines appear", func() {
		BeforeEach(func() {
			lines = []string{
				"DELI MART",
				"9 ELM AVE",
				"TOTAL 5.00",
				"TOTAL 6.00",
			}
		})

		It("keeps the last match", func() {
			Expect(data.Total).To(HaveValue(Equal(6.00)))
		})
	})

	When("a subtotal line is present", func() {
		BeforeEach(func() {
			lines = []string{
				"DELI MART",
				"9 ELM AVE",
				"SUBTOTAL 10.00",
				"TOTAL 11.30",
			}
		})

		It("does not count the subtotal line as a total", func() {
			Expect(data.Total).To(HaveValue(Equal(11.30)))
		})
	})

	When("a barcode line appears among items", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"MILK 2% 1L",
				"12345678901",
				"SUBTOTAL 3.49",
			}
		})

		It("never classifies a run of 11+ digits as an item", func() {
			Expect(data.Items).To(Equal([]string{"MILK 2% 1L"}))
		})
	})

	When("the date line has no time token", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"DATE/TIME",
				"25/12/23",
			}
		})

		It("leaves both date and time absent", func() {
			Expect(data.Date).To(BeNil())
			Expect(data.Time).To(BeNil())
		})
	})

	When("the date uses a four-digit year", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"DATE/TIME",
				"05/01/2024 09:15:59",
			}
		})

		It("keeps the year as-is", func() {
			Expect(data.Date).To(HaveValue(Equal("2024-01-05")))
			Expect(data.Time).To(HaveValue(Equal("09:15:59")))
		})
	})

	When("the DATE/TIME label is the last line", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"DATE/TIME",
			}
		})

		It("does not panic and leaves the date absent", func() {
			Expect(data.Date).To(BeNil())
		})
	})

	When("a keyword is the last line with no amount anywhere", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"TOTAL",
			}
		})

		It("leaves the total absent", func() {
			Expect(data.Total).To(BeNil())
		})
	})

	When("lines carry surrounding whitespace", func() {
		BeforeEach(func() {
			lines = []string{
				"  FRESHMART GROCERY  ",
				"\t123 MAIN ST",
				"  SUBTOTAL ",
				" 15.50",
			}
		})

		It("trims before classifying", func() {
			Expect(data.MerchantName).To(Equal("FRESHMART GROCERY"))
			Expect(data.Address).To(HaveValue(Equal("123 MAIN ST")))
			Expect(data.Subtotal).To(HaveValue(Equal(15.50)))
		})
	})

	When("called twice on the same input", func() {
		BeforeEach(func() {
			lines = []string{
				"FRESHMART GROCERY",
				"123 MAIN ST",
				"MILK 2% 1L",
				"SUBTOTAL",
				"15.50",
			}
		})

		It("returns identical results", func() {
			Expect(Extract(lines)).To(Equal(Extract(lines)))
		})

		It("does not mutate the input", func() {
			Expect(lines[0]).To(Equal("FRESHMART GROCERY"))
		})
	})

	When("the input is a single very long line", func() {
		BeforeEach(func() {
			long := make([]byte, 1<<16)
			for i := range long {
				long[i] = 'A'
			}
			lines = []string{string(long)}
		})

		It("terminates and treats the line as the merchant name", func() {
			Expect(data.MerchantName).To(HaveLen(1 << 16))
		})
	})
})

var _ = Describe("TotalWithTax", func() {
	It("adds tax as a percentage of the amount", func() {
		total, err := TotalWithTax(100, 13)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(113.0))
	})

	It("rounds to cents without float drift", func() {
		total, err := TotalWithTax(19.99, 13)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(22.59))
	})

	It("returns the amount unchanged for a zero rate", func() {
		total, err := TotalWithTax(42.42, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(42.42))
	})

	It("rejects a negative amount", func() {
		_, err := TotalWithTax(-1, 13)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a negative tax rate", func() {
		_, err := TotalWithTax(10, -5)
		Expect(err).To(HaveOccurred())
	})
})
