package canvas_test

import (
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/easelhq/easel/pkg/canvas"
)

var _ = Describe("State transitions", func() {
	var (
		state canvas.State
		now   time.Time
	)

	BeforeEach(func() {
		state = canvas.NewState("test-model")
		now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	})

	Describe("SubmitPrompt", func() {
		It("appends a user message and marks the session busy", func() {
			next, req, ok := canvas.SubmitPrompt(state, "draw a cat", now)

			Expect(ok).To(BeTrue())
			Expect(next.Busy).To(BeTrue())
			Expect(next.Messages).To(HaveLen(1))
			Expect(next.Messages[0].Role).To(Equal(canvas.RoleUser))
			Expect(next.Messages[0].Text).To(Equal("draw a cat"))
			Expect(req.Prompt).To(Equal("draw a cat"))
			Expect(req.Model).To(Equal("test-model"))
		})

		It("trims the prompt before use", func() {
			next, req, ok := canvas.SubmitPrompt(state, "  draw a cat  ", now)

			Expect(ok).To(BeTrue())
			Expect(next.Messages[0].Text).To(Equal("draw a cat"))
			Expect(req.Prompt).To(Equal("draw a cat"))
		})

		It("is a no-op for a whitespace-only prompt", func() {
			next, req, ok := canvas.SubmitPrompt(state, "   \n\t ", now)

			Expect(ok).To(BeFalse())
			Expect(req).To(BeNil())
			Expect(next).To(Equal(state))
		})

		It("is a no-op while a request is in flight", func() {
			busy, _, ok := canvas.SubmitPrompt(state, "first", now)
			Expect(ok).To(BeTrue())

			next, req, ok := canvas.SubmitPrompt(busy, "second", now)
			Expect(ok).To(BeFalse())
			Expect(req).To(BeNil())
			Expect(next.Messages).To(HaveLen(1))
		})

		It("includes the just-appended message in the history", func() {
			_, req, _ := canvas.SubmitPrompt(state, "draw a cat", now)

			Expect(req.History).To(HaveLen(1))
			Expect(req.History[0].Role).To(Equal(canvas.RoleUser))
			Expect(req.History[0].Content).To(Equal("draw a cat"))
		})

		It("transmits only the trailing history window", func() {
			s := state
			for i := 0; i < 14; i++ {
				var ok bool
				s, _, ok = canvas.SubmitPrompt(s, fmt.Sprintf("turn %d", i), now)
				Expect(ok).To(BeTrue())
				s = canvas.ApplyResult(s, canvas.Result{OK: false, Err: "x"}, now)
			}

			_, req, ok := canvas.SubmitPrompt(s, "latest", now)
			Expect(ok).To(BeTrue())
			Expect(req.History).To(HaveLen(canvas.HistoryWindow))
			Expect(req.History[canvas.HistoryWindow-1].Content).To(Equal("latest"))
		})

		It("attaches the canvas image only when the reference flag is set", func() {
			withCanvas, err := canvas.SetReferenceImage(state, "p.png", "ZGF0YQ==", "image/png", now)
			Expect(err).NotTo(HaveOccurred())

			_, req, _ := canvas.SubmitPrompt(withCanvas, "edit it", now)
			Expect(req.BaseImage).To(Equal("ZGF0YQ=="))
			Expect(req.BaseImageMimeType).To(Equal("image/png"))

			off := canvas.SetUseReference(withCanvas, false)
			_, req, _ = canvas.SubmitPrompt(off, "edit it", now)
			Expect(req.BaseImage).To(BeEmpty())
			Expect(req.BaseImageMimeType).To(BeEmpty())
		})

		It("does not mutate the input state", func() {
			before := len(state.Messages)
			_, _, ok := canvas.SubmitPrompt(state, "draw a cat", now)

			Expect(ok).To(BeTrue())
			Expect(state.Messages).To(HaveLen(before))
			Expect(state.Busy).To(BeFalse())
		})
	})

	Describe("ApplyResult", func() {
		var inFlight canvas.State

		BeforeEach(func() {
			var ok bool
			inFlight, _, ok = canvas.SubmitPrompt(state, "draw a cat", now)
			Expect(ok).To(BeTrue())
		})

		Context("on success with an image", func() {
			result := canvas.Result{
				OK:    true,
				Image: &canvas.Image{Data: "aW1n", MIMEType: "image/png"},
				Text:  "A cat.",
				Model: "test-model",
			}

			It("appends the assistant message with caption and image", func() {
				next := canvas.ApplyResult(inFlight, result, now)

				Expect(next.Messages).To(HaveLen(2))
				last := next.Messages[1]
				Expect(last.Role).To(Equal(canvas.RoleAssistant))
				Expect(last.Text).To(Equal("A cat."))
				Expect(last.Image).NotTo(BeNil())
				Expect(last.Image.Data).To(Equal("aW1n"))
			})

			It("replaces the canvas and forces the reference flag", func() {
				next := canvas.ApplyResult(inFlight, result, now)

				Expect(next.Canvas).NotTo(BeNil())
				Expect(next.Canvas.Data).To(Equal("aW1n"))
				Expect(next.UseReference).To(BeTrue())
			})

			It("forces the reference flag even if previously switched off", func() {
				first := canvas.ApplyResult(inFlight, result, now)
				off := canvas.SetUseReference(first, false)
				Expect(off.UseReference).To(BeFalse())

				submitted, _, ok := canvas.SubmitPrompt(off, "again", now)
				Expect(ok).To(BeTrue())
				next := canvas.ApplyResult(submitted, result, now)
				Expect(next.UseReference).To(BeTrue())
			})

			It("clears the busy flag", func() {
				next := canvas.ApplyResult(inFlight, result, now)
				Expect(next.Busy).To(BeFalse())
			})
		})

		Context("on success with a blank caption", func() {
			It("falls back to the fixed phrase", func() {
				next := canvas.ApplyResult(inFlight, canvas.Result{
					OK:    true,
					Image: &canvas.Image{Data: "aW1n", MIMEType: "image/png"},
					Text:  "   ",
				}, now)

				Expect(next.Messages[1].Text).To(Equal(canvas.FallbackCaption))
			})
		})

		Context("on failure", func() {
			It("appends a visibly-marked error notice", func() {
				next := canvas.ApplyResult(inFlight, canvas.Result{OK: false, Err: "generation failed"}, now)

				Expect(next.Messages).To(HaveLen(2))
				last := next.Messages[1]
				Expect(last.Role).To(Equal(canvas.RoleAssistant))
				Expect(last.Text).To(HavePrefix("⚠️"))
				Expect(last.Text).To(ContainSubstring("generation failed"))
			})

			It("leaves the canvas untouched", func() {
				withCanvas := canvas.ApplyResult(inFlight, canvas.Result{
					OK:    true,
					Image: &canvas.Image{Data: "a2VlcA==", MIMEType: "image/png"},
				}, now)

				submitted, _, ok := canvas.SubmitPrompt(withCanvas, "again", now)
				Expect(ok).To(BeTrue())
				next := canvas.ApplyResult(submitted, canvas.Result{OK: false, Err: "boom"}, now)

				Expect(next.Canvas).NotTo(BeNil())
				Expect(next.Canvas.Data).To(Equal("a2VlcA=="))
				Expect(next.UseReference).To(BeTrue())
			})
		})
	})

	Describe("SetReferenceImage", func() {
		It("replaces the canvas and forces the reference flag", func() {
			next, err := canvas.SetReferenceImage(state, "photo.png", "dXA=", "image/png", now)

			Expect(err).NotTo(HaveOccurred())
			Expect(next.Canvas).NotTo(BeNil())
			Expect(next.Canvas.Data).To(Equal("dXA="))
			Expect(next.UseReference).To(BeTrue())
		})

		It("records an informational message naming the file", func() {
			next, err := canvas.SetReferenceImage(state, "photo.png", "dXA=", "image/png", now)

			Expect(err).NotTo(HaveOccurred())
			Expect(next.Messages).To(HaveLen(1))
			Expect(next.Messages[0].Text).To(ContainSubstring("photo.png"))
			Expect(next.Messages[0].Image).NotTo(BeNil())
		})

		It("rejects non-image MIME types", func() {
			next, err := canvas.SetReferenceImage(state, "notes.txt", "dHh0", "text/plain", now)

			Expect(err).To(MatchError(canvas.ErrNotAnImage))
			Expect(next).To(Equal(state))
		})
	})

	Describe("ClearReference", func() {
		It("clears canvas and flag without touching the log", func() {
			withCanvas, err := canvas.SetReferenceImage(state, "p.png", "ZA==", "image/png", now)
			Expect(err).NotTo(HaveOccurred())

			next := canvas.ClearReference(withCanvas)

			Expect(next.Canvas).To(BeNil())
			Expect(next.UseReference).To(BeFalse())
			Expect(next.Messages).To(HaveLen(1))
		})
	})

	Describe("SetUseReference", func() {
		It("is a no-op without a canvas image", func() {
			next := canvas.SetUseReference(state, true)
			Expect(next.UseReference).To(BeFalse())
		})

		It("toggles the flag when a canvas exists", func() {
			withCanvas, err := canvas.SetReferenceImage(state, "p.png", "ZA==", "image/png", now)
			Expect(err).NotTo(HaveOccurred())

			off := canvas.SetUseReference(withCanvas, false)
			Expect(off.UseReference).To(BeFalse())

			on := canvas.SetUseReference(off, true)
			Expect(on.UseReference).To(BeTrue())
		})
	})

	Describe("message identity", func() {
		It("assigns a unique ID to every message", func() {
			s := state
			for i := 0; i < 5; i++ {
				var ok bool
				s, _, ok = canvas.SubmitPrompt(s, fmt.Sprintf("turn %d", i), now)
				Expect(ok).To(BeTrue())
				s = canvas.ApplyResult(s, canvas.Result{
					OK:    true,
					Image: &canvas.Image{Data: "ZA==", MIMEType: "image/png"},
				}, now)
			}

			seen := map[string]bool{}
			for _, m := range s.Messages {
				Expect(seen[m.ID]).To(BeFalse(), "duplicate message ID %s", m.ID)
				seen[m.ID] = true
			}
			Expect(seen).To(HaveLen(10))
		})
	})
})
