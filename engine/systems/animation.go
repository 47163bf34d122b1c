package systems

import (
	"fmt"
	stdmath "math"

	"github.com/spaghettifunk/meshsync/engine/adapter"
	"github.com/spaghettifunk/meshsync/engine/config"
	"github.com/spaghettifunk/meshsync/engine/core"
	"github.com/spaghettifunk/meshsync/engine/scene"
)

/**
 * @brief Bound once at registration, invoked once per sampled tick. Each
 * closure writes only into its own animation.
 */
type AnimationRecord struct {
	Kind      scene.Kind
	Animation scene.Animation
	Sample    func(hostTime float64, curveTime float32)
}

type AnimationSystem struct {
	host       adapter.Host
	tracker    *TrackerSystem
	translator *TranslatorSystem
	settings   *config.Settings

	records []*AnimationRecord
}

type AnimationSystemConfig struct {
	Settings *config.Settings
}

func NewAnimationSystem(config *AnimationSystemConfig, host adapter.Host, tracker *TrackerSystem, translator *TranslatorSystem) (*AnimationSystem, error) {
	if host == nil || tracker == nil || translator == nil || config.Settings == nil {
		err := fmt.Errorf("func NewAnimationSystem - host, tracker, translator and settings are required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	return &AnimationSystem{
		host:       host,
		tracker:    tracker,
		translator: translator,
		settings:   config.Settings,
	}, nil
}

func (as *AnimationSystem) Shutdown() error {
	as.clear()
	return nil
}

func (as *AnimationSystem) SetSettings(s *config.Settings) {
	as.settings = s
}

/**
 * @brief Binds a sampler for key into clip. Returns false when the key is
 * already registered or its category is disabled.
 */
func (as *AnimationSystem) Register(key adapter.Handle, clip *scene.AnimationClip) bool {
	path := adapter.Path(as.host, key)
	if path == "" {
		return false
	}
	record := as.tracker.Observe(key)
	if record.Anim != nil {
		return false
	}

	s := as.settings
	var rec *AnimationRecord

	switch as.host.Kind(key) {
	case scene.KindCamera:
		if !s.SyncCameras {
			return false
		}
		anim := scene.NewCameraAnimation(path)
		provider, _ := as.host.(adapter.CameraProvider)
		rec = &AnimationRecord{Kind: scene.KindCamera, Animation: anim, Sample: func(ht float64, ct float32) {
			as.sampleTransform(&anim.TransformAnimation, key, ht, ct)
			if provider == nil {
				return
			}
			if data, ok := provider.CameraData(key, ht); ok {
				anim.Fov.Append(ct, data.Fov)
			}
		}}
	case scene.KindLight:
		if !s.SyncLights {
			return false
		}
		anim := scene.NewLightAnimation(path)
		provider, _ := as.host.(adapter.LightProvider)
		rec = &AnimationRecord{Kind: scene.KindLight, Animation: anim, Sample: func(ht float64, ct float32) {
			as.sampleTransform(&anim.TransformAnimation, key, ht, ct)
			if provider == nil {
				return
			}
			if data, ok := provider.LightData(key, ht); ok {
				anim.Color.Append(ct, data.Color)
				anim.Intensity.Append(ct, data.Intensity)
			}
		}}
	case scene.KindMesh:
		if s.SyncMeshes {
			anim := scene.NewMeshAnimation(path)
			rec = &AnimationRecord{Kind: scene.KindMesh, Animation: anim, Sample: func(ht float64, ct float32) {
				as.sampleTransform(&anim.TransformAnimation, key, ht, ct)
			}}
			break
		}
		fallthrough
	default:
		if !s.SyncTransforms {
			return false
		}
		anim := scene.NewTransformAnimation(path)
		rec = &AnimationRecord{Kind: scene.KindTransform, Animation: anim, Sample: func(ht float64, ct float32) {
			as.sampleTransform(anim, key, ht, ct)
		}}
	}

	record.Anim = rec
	as.records = append(as.records, rec)
	clip.Add(rec.Animation)
	return true
}

func (as *AnimationSystem) sampleTransform(anim *scene.TransformAnimation, key adapter.Handle, hostTime float64, curveTime float32) {
	anim.Sample(curveTime, as.translator.LocalTransform(key, hostTime))
}

/**
 * @brief Steps the host animation range, both ends included, at the
 * configured rate and invokes every registered sampler at each tick.
 * Curve times are host seconds multiplied by the time scale.
 */
func (as *AnimationSystem) Sample() int {
	start, end := as.host.AnimationRange()
	if end < start {
		return 0
	}
	rate := float64(as.settings.AnimationSampleRate)
	scale := float64(as.settings.AnimationTimeScale)
	// the epsilon keeps an end that falls exactly on a tick
	ticks := int(stdmath.Floor((end-start)*rate+1e-6)) + 1
	for i := 0; i < ticks; i++ {
		t := start + float64(i)/rate
		ct := float32(t * scale)
		for _, rec := range as.records {
			rec.Sample(t, ct)
		}
	}
	return ticks
}

/**
 * @brief Registers keys, samples the range, reduces the result and drops
 * the intermediate records. Returns nil when nothing animated survives.
 */
func (as *AnimationSystem) Export(keys []adapter.Handle) *scene.AnimationClip {
	defer as.clear()

	clip := scene.NewAnimationClip("")
	registered := 0
	for _, key := range keys {
		if as.Register(key, clip) {
			registered++
		}
	}
	if registered == 0 {
		return nil
	}

	ticks := as.Sample()
	clip.Reduce(as.settings.AnimationReductionTolerance)
	core.LogDebug("sampled %d animations over %d ticks, %d kept", registered, ticks, len(clip.Animations))
	if clip.Empty() {
		return nil
	}
	return clip
}

func (as *AnimationSystem) clear() {
	as.records = nil
	as.tracker.ClearAnimationState()
}
