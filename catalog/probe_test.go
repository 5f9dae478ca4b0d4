package catalog

import "testing"

const sampleProbe = `{
  "streams": [
    {
      "index": 0,
      "codec_type": "video",
      "codec_name": "mjpeg",
      "width": 600,
      "height": 900,
      "disposition": { "attached_pic": 1 }
    },
    {
      "index": 1,
      "codec_type": "video",
      "codec_name": "h264",
      "width": 1920,
      "height": 1080,
      "r_frame_rate": "30000/1001",
      "disposition": { "attached_pic": 0 }
    },
    {
      "index": 2,
      "codec_type": "audio",
      "codec_name": "aac"
    }
  ],
  "format": {
    "duration": "3600.040000",
    "bit_rate": "6000000"
  }
}`

func TestParseProbe(t *testing.T) {
	res, err := ParseProbe([]byte(sampleProbe))
	if err != nil {
		t.Fatalf("ParseProbe() = %v", err)
	}
	if res.Width != 1920 || res.Height != 1080 {
		t.Fatalf("resolution = %dx%d, want 1920x1080 (cover art skipped)", res.Width, res.Height)
	}
	if res.Duration != 3600.04 {
		t.Fatalf("Duration = %v", res.Duration)
	}
	if res.Bitrate != 6_000_000 {
		t.Fatalf("Bitrate = %d, want format fallback 6000000", res.Bitrate)
	}
	if res.FrameRate < 29.97 || res.FrameRate > 29.98 {
		t.Fatalf("FrameRate = %v, want ~29.97", res.FrameRate)
	}
}

func TestParseProbePrefersStreamBitrate(t *testing.T) {
	data := `{"streams":[{"codec_type":"video","bit_rate":"4500000","r_frame_rate":"25/1"}],"format":{"bit_rate":"4700000"}}`
	res, err := ParseProbe([]byte(data))
	if err != nil {
		t.Fatal(err)
	}
	if res.Bitrate != 4_500_000 || res.FrameRate != 25 || res.Duration != 0 {
		t.Fatalf("ParseProbe() = %+v", res)
	}
}

func TestParseProbeErrors(t *testing.T) {
	for _, data := range []string{`not json`, `{"streams":[{"codec_type":"audio"}]}`} {
		if _, err := ParseProbe([]byte(data)); err == nil {
			t.Errorf("ParseProbe(%q) succeeded, want error", data)
		}
	}
}
