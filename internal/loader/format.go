package loader

// FormatPlan is the surface layout requested for a decoded image.
type FormatPlan struct {
	BitsPerPixel               int
	Rmask, Gmask, Bmask, Amask uint32
}

// PlanFormat computes the channel masks for 8-bit samples. Single-channel
// images (palette indices, or gray represented through a ramp palette) get
// no masks, which makes the surface indexed.
func PlanFormat(depth uint8, channels int, littleEndian bool) FormatPlan {
	plan := FormatPlan{BitsPerPixel: int(depth) * channels}
	if channels < 3 {
		return plan
	}
	if littleEndian {
		plan.Rmask = 0x000000ff
		plan.Gmask = 0x0000ff00
		plan.Bmask = 0x00ff0000
		if channels == 4 {
			plan.Amask = 0xff000000
		}
		return plan
	}
	s := 8
	if channels == 4 {
		s = 0
	}
	plan.Rmask = 0xff000000 >> s
	plan.Gmask = 0x00ff0000 >> s
	plan.Bmask = 0x0000ff00 >> s
	if channels == 4 {
		plan.Amask = 0x000000ff
	}
	return plan
}
