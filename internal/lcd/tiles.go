package lcd

// Tile sheet geometry. A video RAM bank holds 384 tiles.
const (
	NumTiles        = 384
	TileSheetCols   = 16
	TileSheetRows   = NumTiles / TileSheetCols
	TileSheetWidth  = TileSheetCols * 8
	TileSheetHeight = TileSheetRows * 8
)

// TileSheet draws every tile of a video RAM bank into pix, RGBA at four
// bytes per pixel and TileSheetWidth pixels per row, using background
// palette 0. pix must hold TileSheetWidth*TileSheetHeight*4 bytes.
func (c *Controller) TileSheet(bank int, pix []byte) {
	vram := &c.m.LCD.VRAM[bank&1]
	pal := c.BG[0]
	for t := 0; t < NumTiles; t++ {
		tx, ty := (t%TileSheetCols)*8, (t/TileSheetCols)*8
		for y := 0; y < 8; y++ {
			lo, hi := vram[t*16+y*2], vram[t*16+y*2+1]
			for x := 0; x < 8; x++ {
				bit := 7 - x
				col := pal[(lo>>bit)&1|((hi>>bit)&1)<<1]
				off := ((ty+y)*TileSheetWidth + tx + x) * 4
				pix[off], pix[off+1], pix[off+2], pix[off+3] = col.R, col.G, col.B, col.A
			}
		}
	}
}
