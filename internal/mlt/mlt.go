// Package mlt emits a Shotcut-compatible MLT project file describing the
// scheduled clips as a non-destructive timeline.
package mlt

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/alga/collagen/internal/ffmpeg"
	"github.com/alga/collagen/internal/footage"
	"github.com/alga/collagen/internal/schedule"
	"github.com/alga/collagen/pkg/util"
)

const (
	mltVersion   = "7.22.0"
	shotcutTitle = "Shotcut version 24.04.01"
	zeroTC       = "00:00:00.000"
)

// Backend writes the project-file artifact for a placement list
type Backend struct {
	logger   zerolog.Logger
	prober   Prober
	fallback Fallback
}

// NewBackend creates a project-file backend over the given prober. The
// fallback profile is used for files the prober cannot read.
func NewBackend(logger zerolog.Logger, prober Prober, fallback Fallback) *Backend {
	return &Backend{
		logger:   logger.With().Str("component", "mlt").Logger(),
		prober:   prober,
		fallback: fallback.normalize(),
	}
}

// Realize builds the project document for the indexed footage and scheduled
// placements and writes it to dest.
func (b *Backend) Realize(ctx context.Context, ix *footage.Index, placements []schedule.Placement, dest string) error {
	doc, err := b.build(ctx, ix, placements)
	if err != nil {
		return err
	}

	data, err := doc.Marshal()
	if err != nil {
		return fmt.Errorf("marshal project file: %w", err)
	}

	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("write project file: %w", err)
	}

	b.logger.Info().
		Str("output", dest).
		Int("sources", len(ix.Entries)).
		Int("clips", len(placements)).
		Msg("project file written")

	return nil
}

// build assembles the document: reference bin, filler track, clip track and
// the fixed pair of compositing transitions.
func (b *Backend) build(ctx context.Context, ix *footage.Index, placements []schedule.Placement) (*Document, error) {
	cache := newProbeCache(b.logger, b.prober, b.fallback)

	// One metadata record per source file, probed once each
	infos := make([]*probeRecord, len(ix.Entries))
	chainByPath := make(map[string]int, len(ix.Entries))
	for i, entry := range ix.Entries {
		info := cache.get(ctx, entry.Path)
		if info.Duration <= 0 {
			// The index probed the duration already; keep the document
			// consistent with it even when the full probe failed.
			info.Duration = entry.Duration
		}
		infos[i] = &probeRecord{
			entry: entry,
			info:  info,
			hash:  fmt.Sprintf("%x", md5.Sum([]byte(util.BaseName(entry.Path)))),
		}
		if _, seen := chainByPath[entry.Path]; !seen {
			chainByPath[entry.Path] = i
		}
	}

	if len(infos) == 0 {
		return nil, fmt.Errorf("no footage to reference")
	}

	profileInfo := infos[0].info
	aspectDiv := util.GCD(profileInfo.Width, profileInfo.Height)

	doc := &Document{
		Version:  mltVersion,
		Title:    shotcutTitle,
		Producer: "main_bin",
		Profile: Profile{
			Description: fmt.Sprintf("%dx%d %d/%d fps",
				profileInfo.Width, profileInfo.Height,
				profileInfo.FrameRateNum, profileInfo.FrameRateDen),
			Width:            profileInfo.Width,
			Height:           profileInfo.Height,
			Progressive:      1,
			SampleAspectNum:  1,
			SampleAspectDen:  1,
			DisplayAspectNum: profileInfo.Width / aspectDiv,
			DisplayAspectDen: profileInfo.Height / aspectDiv,
			FrameRateNum:     profileInfo.FrameRateNum,
			FrameRateDen:     profileInfo.FrameRateDen,
			Colorspace:       "709",
		},
	}

	// Reference bin: one fully described chain per source file
	mainBin := Playlist{
		ID:    "main_bin",
		Title: shotcutTitle,
		Properties: []Property{
			{Name: "shotcut:projectAudioChannels", Value: "2"},
			{Name: "shotcut:projectFolder", Value: "1"},
			{Name: "xml_retain", Value: "1"},
		},
	}
	for i, rec := range infos {
		doc.Body = append(doc.Body, binChain(i, rec))
		mainBin.Entries = append(mainBin.Entries, Entry{
			Producer: binChainID(i),
			In:       zeroTC,
			Out:      util.Timecode(rec.info.Duration),
		})
	}
	doc.Body = append(doc.Body, mainBin)

	// Filler track sized to the furthest placement end
	var maxEnd float64
	for _, p := range placements {
		if end := p.SourceOffset + p.Duration; end > maxEnd {
			maxEnd = end
		}
	}
	fillerTC := util.Timecode(maxEnd)

	doc.Body = append(doc.Body, Producer{
		ID: "black",
		In: zeroTC, Out: fillerTC,
		Properties: []Property{
			{Name: "length", Value: fillerTC},
			{Name: "eof", Value: "pause"},
			{Name: "resource", Value: "0"},
			{Name: "aspect_ratio", Value: "1"},
			{Name: "mlt_service", Value: "color"},
			{Name: "mlt_image_format", Value: "rgba"},
			{Name: "set.test_audio", Value: "0"},
		},
	})
	doc.Body = append(doc.Body, Playlist{
		ID:      "background",
		Entries: []Entry{{Producer: "black", In: zeroTC, Out: fillerTC}},
	})

	// Playable chains referenced by the clip track
	for i, rec := range infos {
		doc.Body = append(doc.Body, trackChain(i, rec))
	}

	// The clip track itself: one entry per placement, in draw order
	clipTrack := Playlist{
		ID: "playlist0",
		Properties: []Property{
			{Name: "shotcut:video", Value: "1"},
			{Name: "shotcut:name", Value: "V1"},
		},
	}
	for _, p := range placements {
		idx, ok := chainByPath[p.SourcePath]
		if !ok {
			return nil, fmt.Errorf("placement references unknown source %s", p.SourcePath)
		}
		clipTrack.Entries = append(clipTrack.Entries, Entry{
			Producer: trackChainID(idx),
			In:       util.Timecode(p.SourceOffset),
			Out:      util.Timecode(p.SourceOffset + p.Duration),
		})
	}
	doc.Body = append(doc.Body, clipTrack)

	doc.Body = append(doc.Body, Tractor{
		ID:    "tractor0",
		Title: shotcutTitle,
		In:    zeroTC,
		Out:   fillerTC,
		Properties: []Property{
			{Name: "shotcut", Value: "1"},
			{Name: "shotcut:projectAudioChannels", Value: "2"},
			{Name: "shotcut:projectFolder", Value: "1"},
		},
		Tracks: []Track{
			{Producer: "background"},
			{Producer: "playlist0"},
		},
		Transition: []Transition{
			{
				ID: "transition0",
				Properties: []Property{
					{Name: "a_track", Value: "0"},
					{Name: "b_track", Value: "1"},
					{Name: "mlt_service", Value: "mix"},
					{Name: "always_active", Value: "1"},
					{Name: "sum", Value: "1"},
				},
			},
			{
				ID: "transition1",
				Properties: []Property{
					{Name: "a_track", Value: "0"},
					{Name: "b_track", Value: "1"},
					{Name: "version", Value: "0.1"},
					{Name: "mlt_service", Value: "frei0r.cairoblend"},
					{Name: "threads", Value: "0"},
					{Name: "disable", Value: "1"},
				},
			},
		},
	})

	return doc, nil
}

type probeRecord struct {
	entry footage.Entry
	info  *ffmpeg.ProbeInfo
	hash  string
}

func binChainID(i int) string   { return fmt.Sprintf("chain%d", i*2) }
func trackChainID(i int) string { return fmt.Sprintf("chain%d", i*2+1) }

// binChain declares a source file with the full metadata block Shotcut
// records in the reference bin.
func binChain(i int, rec *probeRecord) Chain {
	info := rec.info
	durTC := util.Timecode(info.Duration)
	fps := strconv.FormatFloat(info.FPS(), 'g', -1, 64)

	streams := "1"
	if info.HasAudio {
		streams = "2"
	}

	props := []Property{
		{Name: "length", Value: durTC},
		{Name: "eof", Value: "pause"},
		{Name: "resource", Value: rec.entry.Path},
		{Name: "mlt_service", Value: "avformat-novalidate"},
		{Name: "meta.media.nb_streams", Value: streams},
		{Name: "meta.media.0.stream.type", Value: "video"},
		{Name: "meta.media.0.stream.frame_rate", Value: fps},
		{Name: "meta.media.0.stream.sample_aspect_ratio", Value: "0"},
		{Name: "meta.media.0.codec.width", Value: strconv.Itoa(info.Width)},
		{Name: "meta.media.0.codec.height", Value: strconv.Itoa(info.Height)},
		{Name: "meta.media.0.codec.pix_fmt", Value: info.PixFmt},
		{Name: "meta.media.0.codec.sample_aspect_ratio", Value: "1"},
		{Name: "meta.media.0.codec.colorspace", Value: info.Colorspace},
		{Name: "meta.media.0.codec.name", Value: info.CodecName},
	}
	if info.HasAudio {
		props = append(props,
			Property{Name: "meta.media.1.stream.type", Value: "audio"},
			Property{Name: "meta.media.1.codec.sample_fmt", Value: "fltp"},
			Property{Name: "meta.media.1.codec.sample_rate", Value: strconv.Itoa(info.SampleRate)},
			Property{Name: "meta.media.1.codec.channels", Value: strconv.Itoa(info.AudioChannels)},
			Property{Name: "meta.media.1.codec.name", Value: info.AudioCodec},
		)
	}
	props = append(props,
		Property{Name: "seekable", Value: "1"},
		Property{Name: "meta.media.sample_aspect_num", Value: "1"},
		Property{Name: "meta.media.sample_aspect_den", Value: "1"},
		Property{Name: "audio_index", Value: "1"},
		Property{Name: "video_index", Value: "0"},
		Property{Name: "creation_time", Value: info.CreationTime},
		Property{Name: "meta.media.frame_rate_num", Value: strconv.Itoa(info.FrameRateNum)},
		Property{Name: "meta.media.frame_rate_den", Value: strconv.Itoa(info.FrameRateDen)},
		Property{Name: "meta.media.colorspace", Value: info.Colorspace},
		Property{Name: "meta.media.width", Value: strconv.Itoa(info.Width)},
		Property{Name: "meta.media.height", Value: strconv.Itoa(info.Height)},
		Property{Name: "shotcut:hash", Value: rec.hash},
		Property{Name: "xml", Value: "was here"},
	)

	return Chain{ID: binChainID(i), Out: durTC, Properties: props}
}

// trackChain declares the abbreviated copy of a source used by the clip track
func trackChain(i int, rec *probeRecord) Chain {
	info := rec.info
	durTC := util.Timecode(info.Duration)

	streams := "1"
	if info.HasAudio {
		streams = "2"
	}

	return Chain{
		ID:  trackChainID(i),
		Out: durTC,
		Properties: []Property{
			{Name: "length", Value: durTC},
			{Name: "eof", Value: "pause"},
			{Name: "resource", Value: rec.entry.Path},
			{Name: "mlt_service", Value: "avformat-novalidate"},
			{Name: "meta.media.nb_streams", Value: streams},
			{Name: "meta.media.0.stream.type", Value: "video"},
			{Name: "meta.media.0.codec.width", Value: strconv.Itoa(info.Width)},
			{Name: "meta.media.0.codec.height", Value: strconv.Itoa(info.Height)},
			{Name: "seekable", Value: "1"},
			{Name: "audio_index", Value: "1"},
			{Name: "video_index", Value: "0"},
			{Name: "shotcut:hash", Value: rec.hash},
			{Name: "xml", Value: "was here"},
			{Name: "shotcut:caption", Value: util.BaseName(rec.entry.Path)},
		},
	}
}
