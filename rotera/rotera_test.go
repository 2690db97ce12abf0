package rotera

import (
	"testing"

	"go.viam.com/test"

	"go.viam.com/rotera/project"
)

func TestOptimizeProjectReportsUnknownQualityWhenNotReady(t *testing.T) {
	p := project.New()
	result := OptimizeProject(p, DefaultSolveOptions())
	test.That(t, result.Quality, test.ShouldEqual, QualityUnknown)
	test.That(t, result.Converged, test.ShouldBeFalse)
	test.That(t, len(result.Issues) > 0, test.ShouldBeTrue)
}

func TestOptimizeProjectClearsLogBufferEachRun(t *testing.T) {
	p := project.New()
	first := OptimizeProject(p, DefaultSolveOptions())
	second := OptimizeProject(p, DefaultSolveOptions())
	test.That(t, len(first.Logs), test.ShouldEqual, len(second.Logs))
}

func TestGradeQuality(t *testing.T) {
	cases := []struct {
		err  float64
		has  bool
		want Quality
	}{
		{0.1, true, QualitySurveyGrade},
		{0.4, true, QualityExcellent},
		{0.8, true, QualityGood},
		{1.5, true, QualityAcceptable},
		{5.0, true, QualityPoor},
		{0, false, QualityUnknown},
	}
	for _, c := range cases {
		got := gradeQuality(c.err, c.has)
		test.That(t, got, test.ShouldEqual, c.want)
	}
}
