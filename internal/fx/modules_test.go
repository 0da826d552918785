package fx

import (
	"testing"

	"github.com/amityadav/researchcrew/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestAppGraph(t *testing.T) {
	err := fx.ValidateApp(
		ConfigModule,
		StoreModule,
		SearchModule,
		MailModule,
		ModelModule,
		CrewModule,
		SchedulerModule,
		ServerModule,
		fx.NopLogger,
	)
	require.NoError(t, err)
}

func TestNewSearchRegistry(t *testing.T) {
	assert.Equal(t, 0, NewSearchRegistry(config.Config{}).Count())

	registry := NewSearchRegistry(config.Config{SerperAPIKey: "a", SerpAPIKey: "b", TavilyAPIKey: "c"})
	require.Equal(t, 3, registry.Count())
	names := []string{}
	for _, p := range registry.GetAll() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"serper", "serpapi", "tavily"}, names)
}

func TestNewCrewModelWithoutKeys(t *testing.T) {
	llm, err := NewCrewModel(config.Config{})
	require.NoError(t, err)
	assert.Nil(t, llm)
}
