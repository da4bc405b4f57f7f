package camera

import (
	"VoxelStream/shared/util"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const (
	minPitch = -89.0 * math32.Pi / 180
	maxPitch = 89.0 * math32.Pi / 180
)

// FlyCamera é uma câmera livre (yaw/pitch) com movimento suavizado.
// Serve de observador para o registro de chunks e não depende do raylib.
type FlyCamera struct {
	// Configurações
	MoveSpeed    float32 // Voxels por segundo
	Sensitivity  float32 // Graus por pixel de mouse
	SmoothFactor float32 // 0.0 a 1.0 (quanto menor, mais suave)
	FOV          float32

	// Estado alvo (para onde a câmera quer ir)
	TargetPos mgl32.Vec3
	Yaw       float32 // Radianos, 0 olha para -Z
	Pitch     float32

	// Estado atual (interpolado)
	CurrentPos mgl32.Vec3
}

// New cria a câmera em pos olhando para -Z.
func New(pos mgl32.Vec3, speed, sensitivity, fov float32) *FlyCamera {
	return &FlyCamera{
		MoveSpeed:    speed,
		Sensitivity:  sensitivity,
		SmoothFactor: 0.25,
		FOV:          fov,
		TargetPos:    pos,
		CurrentPos:   pos,
	}
}

// Position implementa terrain.Viewpoint.
func (c *FlyCamera) Position() mgl32.Vec3 { return c.CurrentPos }

// Forward implementa terrain.Viewpoint: vetor unitário da direção do olhar.
func (c *FlyCamera) Forward() mgl32.Vec3 {
	cp := math32.Cos(c.Pitch)
	return mgl32.Vec3{
		-math32.Sin(c.Yaw) * cp,
		math32.Sin(c.Pitch),
		-math32.Cos(c.Yaw) * cp,
	}
}

// Right retorna o vetor à direita no plano horizontal.
func (c *FlyCamera) Right() mgl32.Vec3 {
	return mgl32.Vec3{math32.Cos(c.Yaw), 0, -math32.Sin(c.Yaw)}
}

// Target é o ponto para onde a câmera olha (uma unidade à frente).
func (c *FlyCamera) Target() mgl32.Vec3 {
	return c.CurrentPos.Add(c.Forward())
}

// SetPosition move a câmera imediatamente (sem suavização).
func (c *FlyCamera) SetPosition(pos mgl32.Vec3) {
	c.TargetPos = pos
	c.CurrentPos = pos
}

// Rotate aplica um delta de mouse em pixels.
func (c *FlyCamera) Rotate(dx, dy float32) {
	rad := c.Sensitivity * math32.Pi / 180
	c.Yaw -= dx * rad
	c.Pitch = util.Clamp(c.Pitch-dy*rad, minPitch, maxPitch)
}

// Move desloca o alvo: forward ao longo do olhar, right na horizontal e up no eixo Y.
// Os valores são em -1..1 e a velocidade é MoveSpeed.
func (c *FlyCamera) Move(forward, right, up, dt float32) {
	dir := c.Forward().Mul(forward).Add(c.Right().Mul(right)).Add(mgl32.Vec3{0, up, 0})
	if dir.Len() == 0 {
		return
	}
	c.TargetPos = c.TargetPos.Add(dir.Normalize().Mul(c.MoveSpeed * dt))
}

// Update interpola a posição atual até o alvo. Deve ser chamado a cada frame.
func (c *FlyCamera) Update(dt float32) {
	factor := c.SmoothFactor * 60.0 * dt // Normaliza para 60 FPS
	if factor > 1.0 {
		factor = 1.0
	}
	c.CurrentPos = mgl32.Vec3{
		util.Lerp(c.CurrentPos[0], c.TargetPos[0], factor),
		util.Lerp(c.CurrentPos[1], c.TargetPos[1], factor),
		util.Lerp(c.CurrentPos[2], c.TargetPos[2], factor),
	}
}
