package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/annel0/blockmodeler/internal/geometry"
	"github.com/annel0/blockmodeler/internal/report"
	"github.com/annel0/blockmodeler/internal/vec"
	"github.com/annel0/blockmodeler/internal/world"
)

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BlockResponse - блок с именем типа
type BlockResponse struct {
	world.Block
	Name   string `json:"name,omitempty"`
	Exists bool   `json:"exists"`
}

// MaskResponse - маска соседей позиции
type MaskResponse struct {
	Pos   vec.Vec3   `json:"pos"`
	Mask  uint8      `json:"mask"`
	Faces []vec.Face `json:"faces"`
}

// DiagramResponse - сводка о диаграмме
type DiagramResponse struct {
	Bounds vec.Bounds `json:"bounds"`
	Blocks int        `json:"blocks"`
	Digest string     `json:"digest,omitempty"`
	Undo   int        `json:"undo"`
	Redo   int        `json:"redo"`
}

// historyReader - необязательные возможности источника данных
type historyReader interface {
	HistoryDepth() (undo, redo int)
	Digest() uint64
}

var errBadCoordinate = errors.New("координата должна быть целым числом")

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, GenericResponse{Success: false, Message: message})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, GenericResponse{Success: true, Message: message, Data: data})
}

// position разбирает :x/:y/:z и проверяет границы
func (rs *RestServer) position(c *gin.Context) (vec.Vec3, bool) {
	var pos vec.Vec3
	for _, p := range []struct {
		name string
		dst  *int
	}{{"x", &pos.X}, {"y", &pos.Y}, {"z", &pos.Z}} {
		v, err := strconv.Atoi(c.Param(p.name))
		if err != nil {
			fail(c, http.StatusBadRequest, fmt.Sprintf("%s: %v", p.name, errBadCoordinate))
			return pos, false
		}
		*p.dst = v
	}

	if bounds := rs.oracle.Bounds(); !bounds.Contains(pos) {
		err := &world.OutOfBoundsError{Pos: pos, Bounds: bounds}
		fail(c, http.StatusUnprocessableEntity, err.Error())
		return pos, false
	}
	return pos, true
}

func (rs *RestServer) handleDiagram(c *gin.Context) {
	resp := DiagramResponse{
		Bounds: rs.oracle.Bounds(),
		Blocks: rs.oracle.BlockCount(),
	}
	if h, isHistory := rs.oracle.(historyReader); isHistory {
		resp.Undo, resp.Redo = h.HistoryDepth()
		resp.Digest = fmt.Sprintf("%016x", h.Digest())
	}
	ok(c, "Диаграмма", resp)
}

func (rs *RestServer) handleCatalog(c *gin.Context) {
	ok(c, "Каталог блоков", rs.oracle.Catalog().All())
}

func (rs *RestServer) handleMaterials(c *gin.Context) {
	ok(c, "Спецификация материалов", report.Build(rs.oracle))
}

func (rs *RestServer) handleBlocks(c *gin.Context) {
	var blocks []world.Block
	if y := c.Query("y"); y != "" {
		level, err := strconv.Atoi(y)
		if err != nil {
			fail(c, http.StatusBadRequest, "y: "+errBadCoordinate.Error())
			return
		}
		blocks = rs.oracle.Level(level)
	} else {
		blocks = rs.oracle.Blocks()
	}

	out := make([]BlockResponse, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, rs.blockResponse(b))
	}
	ok(c, fmt.Sprintf("Блоков: %d", len(out)), out)
}

func (rs *RestServer) blockResponse(b world.Block) BlockResponse {
	resp := BlockResponse{Block: b, Exists: !b.Empty()}
	if props, found := rs.oracle.Catalog().Get(b.ID); found {
		resp.Name = props.Name
	}
	return resp
}

func (rs *RestServer) handleBlock(c *gin.Context) {
	pos, valid := rs.position(c)
	if !valid {
		return
	}
	b := rs.oracle.BlockAt(pos)
	if b.Empty() {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Позиция %s пуста", pos),
			Data:    rs.blockResponse(b),
		})
		return
	}
	ok(c, "Блок", rs.blockResponse(b))
}

func (rs *RestServer) handleExists(c *gin.Context) {
	pos, valid := rs.position(c)
	if !valid {
		return
	}
	ok(c, "Наличие блока", gin.H{"pos": pos, "exists": rs.oracle.Exists(pos)})
}

func (rs *RestServer) handleMask(c *gin.Context) {
	pos, valid := rs.position(c)
	if !valid {
		return
	}
	mask := rs.oracle.NeighborMask(pos)
	faces := mask.Faces()
	if faces == nil {
		faces = []vec.Face{}
	}
	ok(c, "Маска соседей", MaskResponse{Pos: pos, Mask: uint8(mask), Faces: faces})
}

func (rs *RestServer) handleGeometry(c *gin.Context) {
	pos, valid := rs.position(c)
	if !valid {
		return
	}
	mesh := rs.oracle.SynthesizeGeometry(pos)
	if mesh.Polygons == nil {
		mesh.Polygons = []geometry.Polygon{}
	}
	ok(c, fmt.Sprintf("Полигонов: %d", len(mesh.Polygons)), mesh)
}

func (rs *RestServer) handleServerInfo(c *gin.Context) {
	info := map[string]interface{}{
		"name":      "Block Modeler",
		"status":    "running",
		"uptime":    rs.metrics.GetUptime(),
		"memory_mb": fmt.Sprintf("%.1f", rs.metrics.GetMemoryUsage()),
		"blocks":    rs.oracle.BlockCount(),
		"catalog":   rs.oracle.Catalog().Len(),
	}
	if cpuPercent, err := rs.metrics.GetCPUUsage(); err == nil {
		info["cpu_percent"] = fmt.Sprintf("%.1f", cpuPercent)
	}
	if rss, err := rs.metrics.GetRSS(); err == nil {
		info["rss_mb"] = fmt.Sprintf("%.1f", rss)
	}

	ok(c, "Информация о сервере", info)
}

func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().Unix(),
	})
}
