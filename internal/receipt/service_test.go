package receipt

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/zombor/receipt-extractor/internal/extraction"
	"github.com/zombor/receipt-extractor/internal/scanning"
)

var _ = Describe("Service", func() {
	var (
		db        *mockDB
		storage   *mockStorage
		scanner   *mockScanner
		idGen     *mockIDGenerator
		timeSrc   *mockTimeSource
		extractor *extraction.Extractor
		service   *Service
		fixedTime time.Time
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		scanner = newMockScanner()
		idGen = &mockIDGenerator{id: "test-id-123"}
		fixedTime = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
		timeSrc = &mockTimeSource{now: fixedTime}
		extractor = nil
	})

	JustBeforeEach(func() {
		service = NewServiceWithDeps(db, scanner, storage, extractor, idGen, timeSrc)
	})

	Describe("ProcessReceipt", func() {
		var (
			filename    string
			data        []byte
			contentType string
			receipt     *Receipt
			err         error
		)

		BeforeEach(func() {
			filename = "IMG_0042.JPG"
			data = []byte("fake image data")
			contentType = "image/jpeg"
		})

		JustBeforeEach(func() {
			receipt, err = service.ProcessReceipt(context.Background(), filename, data, contentType)
		})

		When("processing succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("copies the extracted fields", func() {
				Expect(receipt.ID).To(Equal("test-id-123"))
				Expect(receipt.Merchant).To(Equal("Corner Pharmacy"))
				Expect(receipt.Total.StringFixed(2)).To(Equal("25.99"))
				Expect(receipt.TotalResolved).To(BeTrue())
				Expect(receipt.Date).To(Equal("01/15/2024"))
				Expect(receipt.RawText).To(ContainSubstring("TOTAL 25.99"))
			})

			It("stamps the creation time", func() {
				Expect(receipt.CreatedAt).To(Equal(fixedTime))
				Expect(receipt.UpdatedAt).To(Equal(fixedTime))
			})

			It("stores the file under the receipt id", func() {
				Expect(receipt.Filename).To(Equal("test-id-123_IMG_0042.jpg"))
				Expect(storage.files).To(HaveKeyWithValue("test-id-123_IMG_0042.jpg", data))
			})

			It("passes the content type to the scanner", func() {
				Expect(scanner.gotType).To(Equal("image/jpeg"))
			})

			It("saves the receipt", func() {
				Expect(db.receipts).To(HaveKey("test-id-123"))
			})
		})

		DescribeTable("keeps totals wider than int64 exact",
			func(text, want string) {
				result, extractErr := extraction.Extract(text)
				Expect(extractErr).NotTo(HaveOccurred())
				scanner.receiptData = &scanning.ReceiptData{
					Merchant:      result.Merchant,
					Total:         result.Total,
					TotalResolved: result.TotalResolved,
					Date:          result.Date,
				}

				receipt, err := service.ProcessReceipt(context.Background(), filename, data, contentType)
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Total.StringFixed(2)).To(Equal(want))
				Expect(receipt.Total.IsNegative()).To(BeFalse())
				Expect(receipt.TotalResolved).To(BeTrue())
			},
			Entry("just past int64 cents", "Shop\nTOTAL 92233720368547758.08", "92233720368547758.08"),
			Entry("twenty integer digits", "Shop\nTOTAL 99999999999999999999.99", "99999999999999999999.99"),
		)

		When("the scanner could not resolve a total", func() {
			BeforeEach(func() {
				scanner.receiptData = &scanning.ReceiptData{
					Merchant: "Somewhere",
					Total:    decimal.Zero,
					Date:     extraction.UnknownDate,
				}
			})

			It("saves an unresolved zero total", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Total.StringFixed(2)).To(Equal("0.00"))
				Expect(receipt.TotalResolved).To(BeFalse())
				Expect(receipt.Date).To(Equal("Unknown Date"))
			})
		})

		When("the file is empty", func() {
			BeforeEach(func() {
				data = nil
			})

			It("returns ErrEmptyFile without scanning", func() {
				Expect(err).To(MatchError(ErrEmptyFile))
				Expect(scanner.calls).To(BeZero())
				Expect(storage.files).To(BeEmpty())
			})
		})

		When("storage fails", func() {
			BeforeEach(func() {
				storage.saveErr = errors.New("disk full")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("saving file")))
				Expect(scanner.calls).To(BeZero())
			})
		})

		When("scanning fails", func() {
			BeforeEach(func() {
				scanner.scanErr = errors.New("ocr failed")
			})

			It("returns the error", func() {
				Expect(err).To(MatchError(ContainSubstring("scanning receipt")))
			})

			It("removes the stored file", func() {
				Expect(storage.files).To(BeEmpty())
			})

			It("does not save a receipt", func() {
				Expect(db.receipts).To(BeEmpty())
			})
		})

		When("saving to the database fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("db locked")
			})

			It("returns the error and removes the stored file", func() {
				Expect(err).To(MatchError(ContainSubstring("saving receipt to database")))
				Expect(storage.files).To(BeEmpty())
			})
		})
	})

	Describe("ExtractText", func() {
		It("runs the configured extractor", func() {
			extractor = extraction.New(extraction.WithTotalStrategy(extraction.LargestAmount))
			service = NewServiceWithDeps(db, scanner, storage, extractor, idGen, timeSrc)

			result, err := service.ExtractText("Shop\nSUBTOTAL 9.00\nTOTAL 9.72")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Merchant).To(Equal("Shop"))
			Expect(result.Total.StringFixed(2)).To(Equal("9.72"))
		})

		It("defaults to the first match", func() {
			result, err := service.ExtractText("Shop\nSUBTOTAL 9.00\nTOTAL 9.72")
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Total.StringFixed(2)).To(Equal("9.00"))
		})

		It("does not touch storage", func() {
			_, err := service.ExtractText("Shop")
			Expect(err).NotTo(HaveOccurred())
			Expect(storage.files).To(BeEmpty())
			Expect(db.receipts).To(BeEmpty())
		})

		It("rejects invalid UTF-8", func() {
			_, err := service.ExtractText("Shop\xff")
			Expect(err).To(MatchError(extraction.ErrInvalidInput))
		})
	})

	Describe("GetReceipt", func() {
		BeforeEach(func() {
			db.receipts["abc"] = &Receipt{ID: "abc", Merchant: "Shop"}
		})

		It("returns the receipt", func() {
			receipt, err := service.GetReceipt("abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Merchant).To(Equal("Shop"))
		})

		It("wraps ErrNotFound", func() {
			_, err := service.GetReceipt("missing")
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("ListReceipts", func() {
		It("returns every receipt", func() {
			db.receipts["a"] = &Receipt{ID: "a"}
			db.receipts["b"] = &Receipt{ID: "b"}

			receipts, err := service.ListReceipts()
			Expect(err).NotTo(HaveOccurred())
			Expect(receipts).To(HaveLen(2))
		})

		It("returns database errors", func() {
			db.listErr = errors.New("boom")

			_, err := service.ListReceipts()
			Expect(err).To(MatchError(ContainSubstring("listing receipts")))
		})
	})

	Describe("DeleteReceipt", func() {
		BeforeEach(func() {
			db.receipts["abc"] = &Receipt{ID: "abc", Filename: "abc_receipt.jpg"}
			storage.files["abc_receipt.jpg"] = []byte("data")
		})

		It("removes the receipt and its file", func() {
			Expect(service.DeleteReceipt("abc")).To(Succeed())
			Expect(db.receipts).To(BeEmpty())
			Expect(storage.files).To(BeEmpty())
		})

		It("still removes the receipt when the file is gone", func() {
			delete(storage.files, "abc_receipt.jpg")
			Expect(service.DeleteReceipt("abc")).To(Succeed())
			Expect(db.receipts).To(BeEmpty())
		})

		It("wraps ErrNotFound", func() {
			Expect(service.DeleteReceipt("missing")).To(MatchError(ErrNotFound))
		})
	})

	Describe("GetReceiptFile", func() {
		BeforeEach(func() {
			db.receipts["abc"] = &Receipt{ID: "abc", Filename: "abc_receipt.png", ContentType: "image/png"}
			storage.files["abc_receipt.png"] = []byte("png bytes")
		})

		It("returns the data and content type", func() {
			data, contentType, err := service.GetReceiptFile("abc")
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("png bytes")))
			Expect(contentType).To(Equal("image/png"))
		})

		It("returns storage errors", func() {
			storage.getErr = errors.New("io error")
			_, _, err := service.GetReceiptFile("abc")
			Expect(err).To(MatchError(ContainSubstring("getting receipt file")))
		})
	})
})

var _ = DescribeTable("sanitizeFilename",
	func(input, expected string) {
		Expect(sanitizeFilename(input)).To(Equal(expected))
	},
	Entry("plain name", "receipt.jpg", "receipt.jpg"),
	Entry("uppercase extension", "IMG_0042.JPG", "IMG_0042.jpg"),
	Entry("special characters", "my (receipt)!.png", "my receipt.png"),
	Entry("collapses whitespace", "a   b.pdf", "a b.pdf"),
	Entry("strips directories", "../../etc/passwd", "passwd"),
	Entry("empty base", "!!!.jpg", "receipt.jpg"),
	Entry("no extension", "scan", "scan"),
	Entry("truncates long names", "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghijXYZ.jpg", "abcdefghijabcdefghijabcdefghijabcdefghijabcdefghij.jpg"),
)

var _ = Describe("Receipt", func() {
	It("writes the total with two decimals", func() {
		r := Receipt{ID: "abc", Total: decimal.RequireFromString("10.5"), TotalResolved: true}
		data, err := json.Marshal(r)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"total":"10.50"`))
	})

	It("reads the total back exactly", func() {
		var r Receipt
		Expect(json.Unmarshal([]byte(`{"id":"abc","total":"92233720368547758.08"}`), &r)).To(Succeed())
		Expect(r.Total.StringFixed(2)).To(Equal("92233720368547758.08"))
	})
})
