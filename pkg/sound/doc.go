// Package sound plays short audio clips: it decodes and caches buffers by
// tag, mixes any number of concurrent sounds, positions them in 3D around a
// listener and keeps idle-suspending output devices awake.
//
// A Session owns the output device, which is opened lazily on the first
// call that needs it. Play never fails loudly: when no device is available
// or a source cannot be loaded it logs and returns nil.
//
//	s, err := sound.New(sound.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	snd := s.Play(ctx, sound.File("click.ogg"), sound.Options{
//		Tag:     "click",
//		Spatial: sound.At(2, 0, -1),
//	})
//	if snd != nil {
//		<-snd.Done()
//	}
package sound
