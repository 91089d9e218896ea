package features

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingKeysAreOff(t *testing.T) {
	f := New(nil)
	assert.Equal(t, View{}, f.View())
	assert.False(t, f.Bool(ESPEnabled))
	assert.Zero(t, f.Float(FOVCircleRadius))
}

func TestNewConvertsAndIgnoresUnknown(t *testing.T) {
	f := New(map[string]interface{}{
		"esp_enabled":       true,
		"ESP_Box":           "true",
		"esp_name":          1,
		"esp_health":        "nope",
		"fov_circle_radius": "150",
		"aimbot":            true,
	})

	v := f.View()
	assert.True(t, v.ESPEnabled)
	assert.True(t, v.ESPBox)
	assert.True(t, v.ESPName)
	assert.False(t, v.ESPHealth, "unconvertible value is dropped")
	assert.Equal(t, 150.0, v.FOVCircleRadius)
	assert.NotContains(t, f.Map(), "aimbot")
}

func TestSet(t *testing.T) {
	f := New(map[string]interface{}{"esp_box": true})

	assert.True(t, f.Set("esp_distance", true))
	assert.False(t, f.Set("triggerbot", true))
	assert.False(t, f.Set("fov_circle_radius", []int{1}))
	assert.True(t, f.Set("esp_box", false))

	assert.True(t, f.Bool(ESPDistance))
	assert.False(t, f.Bool(ESPBox))
	assert.False(t, f.Bool(FOVCircleRadius), "wrong type reads as zero")
	assert.True(t, Known("SHOW_SPEED"))
	assert.False(t, Known("speed_hack"))
}

func TestViewIsCopy(t *testing.T) {
	f := New(map[string]interface{}{"show_speed": true})
	v := f.View()
	f.Set("show_speed", false)
	assert.True(t, v.ShowSpeed)
	assert.False(t, f.View().ShowSpeed)
}

func TestConcurrentApply(t *testing.T) {
	f := New(nil)
	keys := []Key{ESPEnabled, ESPBox, ESPName, ESPHealth, ESPDistance, ESPSnaplines, ShowSpeed, ShowPosition}

	var wg sync.WaitGroup
	for _, k := range keys {
		wg.Add(1)
		go func(k Key) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				f.Set(string(k), true)
				_ = f.View()
			}
		}(k)
	}
	wg.Wait()

	for _, k := range keys {
		assert.True(t, f.Bool(k), string(k))
	}
}
