package kepler_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/relclock/internal/kepler"
)

var _ = Describe("Propagate", func() {
	const a = 29.6e6

	var times []float64

	BeforeEach(func() {
		times = kepler.Linspace(0, 86400, 2000)
	})

	Context("circular orbit", func() {
		It("keeps the radius equal to a and the speed at sqrt(mu/a)", func() {
			tr, err := kepler.Propagate(kepler.Elements{A: a, Inc: kepler.Deg2Rad(56)}, times)
			Expect(err).NotTo(HaveOccurred())

			want := math.Sqrt(kepler.GMEarth / a)
			for i := range times {
				Expect(tr.Radius[i]).To(Equal(a))
				Expect(tr.Speed[i]).To(BeNumerically("~", want, want*1e-12))
			}
		})
	})

	DescribeTable("radius stays between periapsis and apoapsis",
		func(e float64) {
			el := kepler.Elements{A: a, E: e, Inc: 0.5, RAAN: 1, ArgPeriapsis: 2}
			tr, err := kepler.Propagate(el, times)
			Expect(err).NotTo(HaveOccurred())

			for _, r := range tr.Radius {
				Expect(r).To(BeNumerically(">=", el.Periapsis()-1e-6))
				Expect(r).To(BeNumerically("<=", el.Apoapsis()+1e-6))
			}
		},
		Entry("nearly circular", 0.01),
		Entry("galileo eccentric", 0.16),
		Entry("moderate", 0.5),
		Entry("high", 0.85),
	)

	DescribeTable("is invariant under a 2π shift of the mean anomaly",
		func(e float64) {
			el := kepler.Elements{A: a, E: e, Inc: 0.9, RAAN: 0.2, ArgPeriapsis: 1.4, MeanAnomaly: 0.3}
			shifted := el
			shifted.MeanAnomaly += 2 * math.Pi

			base, err := kepler.Propagate(el, times)
			Expect(err).NotTo(HaveOccurred())
			moved, err := kepler.Propagate(shifted, times)
			Expect(err).NotTo(HaveOccurred())

			for i := range times {
				Expect(moved.Position[i].Sub(base.Position[i]).Norm()).To(BeNumerically("<", 1e-3))
				Expect(moved.Velocity[i].Sub(base.Velocity[i]).Norm()).To(BeNumerically("<", 1e-6))
			}
		},
		Entry("circular", 0.0),
		Entry("galileo eccentric", 0.16),
		Entry("moderate", 0.5),
	)

	DescribeTable("conserves vis-viva energy and angular momentum",
		func(el kepler.Elements) {
			tr, err := kepler.Propagate(el, times)
			Expect(err).NotTo(HaveOccurred())

			mu := el.GravParam()
			h0 := tr.Position[0].Cross(tr.Velocity[0]).Norm()
			for i := range times {
				lhs := tr.Speed[i] * tr.Speed[i]
				rhs := mu * (2/tr.Radius[i] - 1/el.A)
				Expect(math.Abs(lhs-rhs) / rhs).To(BeNumerically("<", 1e-9))

				h := tr.Position[i].Cross(tr.Velocity[i]).Norm()
				Expect(math.Abs(h-h0) / h0).To(BeNumerically("<", 1e-9))
			}
			Expect(math.Abs(h0-el.AngularMomentum()) / h0).To(BeNumerically("<", 1e-9))
		},
		Entry("circular inclined", kepler.Elements{A: a, Inc: kepler.Deg2Rad(56)}),
		Entry("eccentric inclined", kepler.Elements{A: a, E: 0.16, Inc: kepler.Deg2Rad(56), RAAN: 1.1, ArgPeriapsis: 0.4}),
		Entry("gps-like", kepler.Elements{A: 26560e3, E: 0.01, Inc: kepler.Deg2Rad(55)}),
		Entry("custom mu", kepler.Elements{A: 1e7, E: 0.3, Mu: 1e14}),
	)

	It("stays in the reference plane when inc = raan = argp = 0", func() {
		tr, err := kepler.Propagate(kepler.Elements{A: a, E: 0.16}, times)
		Expect(err).NotTo(HaveOccurred())

		for i := range times {
			Expect(tr.Position[i][2]).To(BeZero())
			Expect(tr.Velocity[i][2]).To(BeZero())
		}
	})

	It("closes the orbit after one period", func() {
		el := kepler.Elements{A: a, E: 0.16, Inc: kepler.Deg2Rad(56), RAAN: 0.7, ArgPeriapsis: 2.2, MeanAnomaly: 1}
		tr, err := kepler.Propagate(el, []float64{0, el.Period()})
		Expect(err).NotTo(HaveOccurred())

		Expect(tr.Position[1].Sub(tr.Position[0]).Norm()).To(BeNumerically("<", 1e-3))
		Expect(tr.Velocity[1].Sub(tr.Velocity[0]).Norm()).To(BeNumerically("<", 1e-6))
	})

	It("returns index-aligned output", func() {
		tr, err := kepler.Propagate(kepler.Elements{A: a, E: 0.16}, times)
		Expect(err).NotTo(HaveOccurred())

		Expect(tr.Times).To(Equal(times))
		Expect(tr.Position).To(HaveLen(len(times)))
		Expect(tr.Velocity).To(HaveLen(len(times)))
		Expect(tr.Radius).To(HaveLen(len(times)))
		Expect(tr.Speed).To(HaveLen(len(times)))
	})

	It("agrees with the tolerance-bounded solver", func() {
		el := kepler.Elements{A: a, E: 0.16, Inc: 1}
		fixed, err := kepler.Propagate(el, times)
		Expect(err).NotTo(HaveOccurred())
		early, err := kepler.New(kepler.WithTolerance(1e-14)).Propagate(el, times)
		Expect(err).NotTo(HaveOccurred())

		for i := range times {
			Expect(early.Position[i].Sub(fixed.Position[i]).Norm()).To(BeNumerically("<", 1e-6))
		}
	})

	Context("with elements outside the bound domain", func() {
		DescribeTable("rejects them with a domain error",
			func(el kepler.Elements) {
				_, err := kepler.Propagate(el, times)
				Expect(err).To(MatchError(kepler.ErrDomain))

				var de *kepler.DomainError
				Expect(errors.As(err, &de)).To(BeTrue())
			},
			Entry("a = 0", kepler.Elements{}),
			Entry("a < 0", kepler.Elements{A: -a}),
			Entry("e = 1", kepler.Elements{A: a, E: 1}),
			Entry("e > 1", kepler.Elements{A: a, E: 1.5}),
			Entry("NaN raan", kepler.Elements{A: a, RAAN: math.NaN()}),
		)
	})
})
