package nmossdp

import "github.com/NVIDIA/nvnmos/internal/resource"

// DetectFormat maps an SDP m= line media type to an NMOS format (spec
// §4.2 "Format detection"). Unrecognised media types are a hard error.
func DetectFormat(media string) (resource.Format, error) {
	switch media {
	case "video":
		return resource.FormatVideo, nil
	case "audio":
		return resource.FormatAudio, nil
	case "application":
		// SMPTE 291 ancillary data and SMPTE 2022-6 mux both ride on
		// "application" media descriptions; Parse refines this to
		// FormatMux via DetectDataSubformat once the rtpmap encoding name
		// is known.
		return resource.FormatData, nil
	default:
		return "", newErr(ErrCodeUnsupportedFormat, "unsupported SDP media type: "+media, nil)
	}
}

// DetectDataSubformat distinguishes ancillary data from a 2022-6 mux by
// the rtpmap encoding name, since both ride on "application" media
// descriptions.
func DetectDataSubformat(encodingName string) resource.Format {
	switch encodingName {
	case "smpte291":
		return resource.FormatData
	case "SMPTE2022-6", "smpte2022-6":
		return resource.FormatMux
	default:
		return resource.FormatData
	}
}
