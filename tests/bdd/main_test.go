package bdd

import (
	"testing"

	"github.com/cucumber/godog"

	"movie-recommend-engine/tests/bdd/steps"
)

// TestFeatures runs every scenario in features/ against the recommendation
// engine, grounded on the teacher's godog-server/main_test.go wiring:
// one ScenarioInitializer registering step groups onto a shared
// *TestContext.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	ctx := steps.NewTestContext()
	steps.RegisterRecommendSteps(sc, ctx)
}
