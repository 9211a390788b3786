// Package hover provides an implementation of a Box2D hovering
// environment.
package hover

import (
	"fmt"
	"image/color"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distuv"

	env "github.com/samuelfneumann/goddpg/environment"
	ts "github.com/samuelfneumann/goddpg/timestep"
	"github.com/samuelfneumann/goddpg/utils/matutils"
)

const (
	FPS float64 = 50

	// Scale adjusts the speed of the game as well as the forces
	Scale float64 = 30.0

	XGravity float64 = 0.0
	YGravity float64 = -10.0

	// Thrust force applied per unit of action in each direction
	ThrustPower float64 = 30.0

	// Craft dimensions in pixels
	CraftW float64 = 20.0
	CraftH float64 = 12.0

	CraftDensity     float64 = 5.0
	CraftFriction    float64 = 0.1
	CraftRestitution float64 = 0.0

	ViewportW float64 = 600
	ViewportH float64 = 400

	// Action
	ActionDims          int     = 2
	MaxContinuousAction float64 = 1.0
	MinContinuousAction float64 = -MaxContinuousAction

	// State observations
	ObservationDims int = 4

	// Box2D limits on velocity: 2.0 units per timestep
	MaxVelocity float64 = 2.0 / (1.0 / FPS) // In Box2D units
	MinVelocity float64 = -MaxVelocity      // In Box2D units
)

// WorldToPixelCoord converts Box2D world coordinates to pixel
// coordinates on the rendering viewport
func WorldToPixelCoord(coords [2]float64) [2]float64 {
	x, y := coords[0], coords[1]

	pixelX := Scale * x
	pixelY := ViewportH - Scale*y

	return [2]float64{pixelX, pixelY}
}

// Display runs the craft with uniformly random thrust for 500 frames,
// rendering each frame to a PNG in the working directory
func Display() {
	w := ViewportW / Scale
	h := ViewportH / Scale

	s := env.NewUniformStarter([]r1.Interval{
		{Min: 0.3 * w, Max: 0.7 * w},
		{Min: 0.4 * h, Max: 0.8 * h},
	}, 12)
	task := NewHoverAt(s, 500, mat.NewVecDense(2,
		[]float64{w / 2.0, h / 2.0}))

	e, _, err := newHover(task, 0.99)
	if err != nil {
		panic(err)
	}

	src := rand.NewSource(123123)
	rng := distuv.Uniform{
		Min: MinContinuousAction,
		Max: MaxContinuousAction,
		Src: src,
	}

	for i := 0; i < 500; i++ {
		e.Render(i)

		action := mat.NewVecDense(2, []float64{rng.Rand(), rng.Rand()})
		_, done, err := e.Step(action)
		if err != nil {
			panic(err)
		}
		if done {
			if _, err := e.Reset(); err != nil {
				panic(err)
			}
		}
	}
}

// contactDetector detects contact between the craft and the world
// boundary
type contactDetector struct {
	env *hover
}

func newContactDetector(e *hover) *contactDetector {
	return &contactDetector{e}
}

// BeginContact flags the episode as over when the craft touches the
// boundary. The craft should hover, never touching the walls.
func (c *contactDetector) BeginContact(contact box2d.B2ContactInterface) {
	if c.env.craft == contact.GetFixtureA().GetBody() ||
		c.env.craft == contact.GetFixtureB().GetBody() {
		c.env.crashed = true
	}
}

func (c *contactDetector) EndContact(contact box2d.B2ContactInterface) {}

func (c *contactDetector) PreSolve(contact box2d.B2ContactInterface,
	oldManifold box2d.B2Manifold) {
}

func (c *contactDetector) PostSolve(contact box2d.B2ContactInterface,
	impulse *box2d.B2ContactImpulse) {
}

// hover implements the underlying hovering environment. In this
// environment, an agent pilots a craft within a walled viewport.
// Gravity constantly pulls the craft downward, and the agent applies
// thrust to the craft's centre of mass to keep it aloft.
//
// State observations consist of the craft's x and y position and its
// x and y velocity, measured in Box2D world units. Positions are
// bounded by the viewport walls. Touching any wall crashes the craft.
type hover struct {
	env.Task

	world box2d.B2World

	boundary       []*box2d.B2Body
	boundaryColour color.Color
	xBounds        r1.Interval
	yBounds        r1.Interval

	craft        *box2d.B2Body
	craftColour  color.Color
	targetColour color.Color
	skyShade     color.Color

	crashed bool

	actionBounds   r1.Interval
	velocityBounds r1.Interval

	discount float64
	prevStep ts.TimeStep
}

// newHover creates a new hovering environment with the argument task
func newHover(task env.Task, discount float64) (*hover, ts.TimeStep, error) {
	h := hover{}
	h.world = box2d.MakeB2World(box2d.B2Vec2{X: XGravity, Y: YGravity})

	h.boundaryColour = color.RGBA{R: 255, G: 166, B: 0, A: 255}
	h.craftColour = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	h.targetColour = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	h.skyShade = color.RGBA{R: 30, G: 30, B: 30, A: 255}

	h.craft = nil
	h.crashed = false

	h.actionBounds = r1.Interval{
		Min: MinContinuousAction,
		Max: MaxContinuousAction,
	}
	h.velocityBounds = r1.Interval{Min: MinVelocity, Max: MaxVelocity}
	h.xBounds = r1.Interval{Min: 0.0, Max: ViewportW / Scale}
	h.yBounds = r1.Interval{Min: 0.0, Max: ViewportH / Scale}

	h.discount = discount

	t, ok := task.(hoverTask)
	if ok {
		t.registerEnv(&h)
		h.Task = t
	} else {
		h.Task = task
	}

	step, err := h.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newHover: %v", err)
	}

	return &h, step, nil
}

// IsCrashed returns whether the craft has touched a wall during the
// current episode
func (h *hover) IsCrashed() bool {
	return h.crashed
}

// Craft returns the Box2D body of the craft
func (h *hover) Craft() *box2d.B2Body {
	return h.craft
}

// destroy removes all bodies from the Box2D world so that the world
// can be rebuilt on the next environmental reset
func (h *hover) destroy() {
	if h.craft == nil {
		return
	}
	h.world.SetContactListener(nil)

	h.world.DestroyBody(h.craft)
	h.craft = nil

	for i := range h.boundary {
		h.world.DestroyBody(h.boundary[i])
	}
	h.boundary = nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (h *hover) Reset() (ts.TimeStep, error) {
	h.destroy()
	h.world.SetContactListener(newContactDetector(h))
	h.crashed = false

	start := h.Start()
	err := validateStart(start, h.xBounds, h.yBounds)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	// Maximum W and H for the Box2D world
	W := ViewportW / Scale
	H := ViewportH / Scale

	// Walls
	h.boundary = make([]*box2d.B2Body, 4)
	for i := 0; i < 4; i++ {
		boundsDef := box2d.NewB2BodyDef()
		boundsDef.Type = 0 // Static body
		h.boundary[i] = h.world.CreateBody(boundsDef)
		boundsShape := box2d.NewB2EdgeShape()
		if i == 0 {
			boundsShape.Set(box2d.MakeB2Vec2(0.0, 0.0),
				box2d.MakeB2Vec2(0.0, H))
		} else if i == 1 {
			boundsShape.Set(box2d.MakeB2Vec2(0.0, H),
				box2d.MakeB2Vec2(W, H))
		} else if i == 2 {
			boundsShape.Set(box2d.MakeB2Vec2(W, H),
				box2d.MakeB2Vec2(W, 0.0))
		} else {
			boundsShape.Set(box2d.MakeB2Vec2(W, 0.0),
				box2d.MakeB2Vec2(0.0, 0.0))
		}
		boundsFix := box2d.MakeB2FixtureDef()
		boundsFix.Shape = boundsShape
		h.boundary[i].CreateFixtureFromDef(&boundsFix)
	}

	// Craft body def
	craftDef := box2d.MakeB2BodyDef()
	craftDef.Type = 2 // Dynamic body
	craftDef.Position = box2d.MakeB2Vec2(start.AtVec(0), start.AtVec(1))
	craftDef.Angle = 0.0
	craftDef.FixedRotation = true

	// Create craft body
	craftBody := h.world.CreateBody(&craftDef)
	h.craft = craftBody

	// Craft shape
	craftShape := box2d.NewB2PolygonShape()
	craftShape.SetAsBox(CraftW/2.0/Scale, CraftH/2.0/Scale)

	// Craft fixture
	craftFix := box2d.MakeB2FixtureDef()
	craftFix.Shape = craftShape
	craftFix.Density = CraftDensity
	craftFix.Friction = CraftFriction
	craftFix.Restitution = CraftRestitution

	// Attach shape to body
	craftBody.CreateFixtureFromDef(&craftFix)

	startStep := ts.New(ts.First, 0, h.discount, h.observation(), 0)
	h.prevStep = startStep

	return startStep, nil
}

// Step takes one environmental step given action a and returns the
// next timestep as a timestep.TimeStep and a bool indicating whether
// or not the episode has ended. Actions are 2-dimensional and
// continuous, consisting of the thrust to apply to the craft's centre
// of mass along the x and y axes. Actions in each dimension outside
// the legal range of [-1, 1] are clipped to stay within this range.
func (h *hover) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	// Ensure action is 2-dimensional
	if a.Len() != ActionDims {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions should be " +
			"2-dimensional")
	}

	// Clip actions
	matutils.VecClip(a, h.actionBounds.Min, h.actionBounds.Max)

	// Thrust
	force := box2d.MakeB2Vec2(
		a.AtVec(0)*ThrustPower,
		a.AtVec(1)*ThrustPower,
	)
	h.craft.ApplyForceToCenter(force, true)

	h.world.Step(1.0/FPS, 6*int(Scale), 2*int(Scale))

	// Calculate the state observation. Contact callbacks have already
	// fired during the world step, so a crash is visible to the Task's
	// reward function here.
	stateVec := h.observation()

	reward := h.GetReward(h.prevStep.Observation, a, stateVec)
	t := ts.New(ts.Mid, reward, h.discount, stateVec, h.prevStep.Number+1)
	h.End(&t)

	h.prevStep = t

	return t, t.Last(), nil
}

// observation constructs the current state observation from the Box2D
// world
func (h *hover) observation() *mat.VecDense {
	pos := h.craft.GetPosition()
	vel := h.craft.GetLinearVelocity()

	return mat.NewVecDense(ObservationDims, []float64{
		pos.X,
		pos.Y,
		vel.X,
		vel.Y,
	})
}

// CurrentTimeStep returns the current timestep in the environment
func (h *hover) CurrentTimeStep() ts.TimeStep {
	return h.prevStep
}

// DiscountSpec returns the discounting specification of the environment
func (h *hover) DiscountSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{h.discount})

	return env.NewSpec(shape, env.Discount, lowerBound, lowerBound,
		env.Continuous)
}

// ObservationSpec returns the observation specification of the
// environment
func (h *hover) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(ObservationDims, nil)

	lowerBound := mat.NewVecDense(ObservationDims, []float64{
		h.xBounds.Min,
		h.yBounds.Min,
		h.velocityBounds.Min,
		h.velocityBounds.Min,
	})

	upperBound := mat.NewVecDense(ObservationDims, []float64{
		h.xBounds.Max,
		h.yBounds.Max,
		h.velocityBounds.Max,
		h.velocityBounds.Max,
	})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// Render draws the current state of the environment to a PNG file
// enumerated by j
func (h *hover) Render(j int) {
	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(h.skyShade)
	dc.Clear()

	// Walls
	dc.SetColor(h.boundaryColour)
	dc.SetLineWidth(5.0)
	for i := range h.boundary {
		fix := h.boundary[i].GetFixtureList()
		sh := fix.M_shape.(*box2d.B2EdgeShape)

		pixelCoords1 := WorldToPixelCoord([2]float64{sh.M_vertex1.X,
			sh.M_vertex1.Y})
		pixelCoords2 := WorldToPixelCoord([2]float64{sh.M_vertex2.X,
			sh.M_vertex2.Y})

		dc.DrawLine(pixelCoords1[0], pixelCoords1[1], pixelCoords2[0],
			pixelCoords2[1])
	}
	dc.Stroke()

	// Target
	t, ok := h.Task.(hoverTask)
	if ok {
		target := t.Target()
		coords := WorldToPixelCoord([2]float64{target.AtVec(0),
			target.AtVec(1)})
		dc.ClearPath()
		dc.SetColor(h.targetColour)
		dc.DrawCircle(coords[0], coords[1], 4.0)
		dc.Fill()
	}

	// Craft
	craftFix := h.craft.GetFixtureList()
	for craftFix != nil {
		shape := craftFix.M_shape.(*box2d.B2PolygonShape)
		path := make([][2]float64, 0, shape.M_count)
		for i, vertex := range shape.M_vertices {
			if i >= shape.M_count {
				break
			}
			trans := craftFix.M_body.M_xf
			vertex = box2d.B2TransformVec2Mul(trans, vertex)

			pixelCoords := WorldToPixelCoord([2]float64{vertex.X, vertex.Y})
			path = append(path, pixelCoords)
		}

		dc.ClearPath()
		for _, point := range path {
			dc.LineTo(point[0], point[1])
		}
		dc.LineTo(path[0][0], path[0][1])

		dc.SetColor(h.craftColour)
		dc.Fill()
		craftFix = craftFix.M_next
	}

	dc.SavePNG(fmt.Sprintf("./Hover%v.png", j))
}

// String returns a string representation of the environment
func (h *hover) String() string {
	str := "Hover  |  Position: (%v, %v)  |  Velocity: (%v, %v)"
	state := h.prevStep.Observation
	return fmt.Sprintf(str, state.AtVec(0), state.AtVec(1), state.AtVec(2),
		state.AtVec(3))
}

// validateStart validates the starting position to ensure the craft
// begins fully inside the walls
func validateStart(state *mat.VecDense, xBounds, yBounds r1.Interval) error {
	if state.Len() != 2 {
		return fmt.Errorf("starting values should be 2-dimensional")
	}

	halfW := CraftW / 2.0 / Scale
	if state.AtVec(0) < xBounds.Min+halfW || state.AtVec(0) > xBounds.Max-halfW {
		return fmt.Errorf("x position out of bounds, expected x ϵ (%v, %v) "+
			"but got x = %v", xBounds.Min+halfW, xBounds.Max-halfW,
			state.AtVec(0))
	}

	halfH := CraftH / 2.0 / Scale
	if state.AtVec(1) < yBounds.Min+halfH || state.AtVec(1) > yBounds.Max-halfH {
		return fmt.Errorf("y position out of bounds, expected y ϵ (%v, %v) "+
			"but got y = %v", yBounds.Min+halfH, yBounds.Max-halfH,
			state.AtVec(1))
	}

	return nil
}
