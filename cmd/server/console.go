package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"voxelcraft.ai/durability/internal/sim/durability"
	"voxelcraft.ai/durability/internal/sim/ecs"
	"voxelcraft.ai/durability/internal/sim/model"
	"voxelcraft.ai/durability/internal/sim/world"
)

var errQuit = errors.New("quit")

// console is the operator shell. Every command runs on the runner goroutine.
type console struct {
	r   *runner
	rl  *readline.Instance
	out io.Writer
}

func newConsole() (*console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "durability> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &console{rl: rl, out: rl.Stdout()}, nil
}

// Stdout coordinates log output with the prompt.
func (c *console) Stdout() io.Writer { return c.rl.Stdout() }

func (c *console) Run(ctx context.Context, cancel context.CancelFunc) {
	rl := c.rl
	defer rl.Close()

	c.printHelp()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}
		if err := c.exec(ctx, line); err != nil {
			if errors.Is(err, errQuit) {
				fmt.Fprintln(c.out, "Exiting...")
				cancel()
				return
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

func (c *console) exec(ctx context.Context, line string) error {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		c.printHelp()
		return nil
	case "quit", "exit", "q":
		return errQuit
	case "spawn":
		err = c.do(ctx, func() error { return c.cmdSpawn(args) })
	case "place":
		err = c.do(ctx, func() error { return c.cmdPlace(args) })
	case "break":
		err = c.do(ctx, func() error { return c.cmdBreak(args) })
	case "reduce":
		err = c.do(ctx, func() error { return c.cmdReduce(args) })
	case "step":
		err = c.do(ctx, func() error { return c.cmdStep(args) })
	case "decay":
		err = c.do(ctx, func() error { return c.cmdDecay() })
	case "inspect", "i":
		err = c.do(ctx, func() error { return c.cmdInspect(args) })
	case "blocks", "b":
		err = c.do(ctx, func() error { return c.cmdBlocks() })
	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return err
}

func (c *console) do(ctx context.Context, fn func() error) error {
	var cmdErr error
	if err := c.r.Do(ctx, func() { cmdErr = fn() }); err != nil {
		return err
	}
	return cmdErr
}

func (c *console) printHelp() {
	fmt.Fprintln(c.out, `Commands:
  spawn <item> [count]              create a carried item
  place <entity> <x> <y> <z>        place one unit of an item as a block
  break <x> <y> <z> [tool] [type]   break a block, optionally with a tool entity and damage type
  reduce <entity> <amount>          reduce durability
  step <ms>                         advance game time
  decay                             advance game time past the next decay pass
  inspect <entity> | <x> <y> <z>    show an entity
  blocks                            list placed blocks
  quit                              exit`)
}

func (c *console) cmdSpawn(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: spawn <item> [count]")
	}
	count := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad count %q", args[1])
		}
		count = n
	}
	e, err := c.r.w.SpawnItem(strings.ToUpper(args[0]), count)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "spawned %s\n", e.ID())
	c.describe(e)
	return nil
}

func (c *console) cmdPlace(args []string) error {
	if len(args) != 4 {
		return fmt.Errorf("usage: place <entity> <x> <y> <z>")
	}
	pos, err := parsePos(args[1:])
	if err != nil {
		return err
	}
	be, err := c.r.w.PlaceItem(ecs.ID(args[0]), pos)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "placed %s at %s\n", be.ID(), pos)
	c.describe(be)
	return nil
}

func (c *console) cmdBreak(args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return fmt.Errorf("usage: break <x> <y> <z> [tool] [type]")
	}
	pos, err := parsePos(args[:3])
	if err != nil {
		return err
	}
	var tool ecs.ID
	var damageType string
	if len(args) > 3 && args[3] != "-" {
		tool = ecs.ID(args[3])
	}
	if len(args) > 4 {
		damageType = args[4]
	}
	drop, err := c.r.w.BreakBlock(pos, tool, damageType)
	if err != nil {
		return err
	}
	if drop == nil {
		fmt.Fprintf(c.out, "broke %s, no drop\n", pos)
	} else {
		fmt.Fprintf(c.out, "broke %s, dropped %s\n", pos, drop.ID())
		c.describe(drop)
	}
	if tool != "" {
		if te, ok := c.r.w.Entity(tool); ok {
			c.describe(te)
		} else {
			fmt.Fprintf(c.out, "tool %s is gone\n", tool)
		}
	}
	return nil
}

func (c *console) cmdReduce(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: reduce <entity> <amount>")
	}
	amount, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad amount %q", args[1])
	}
	id := ecs.ID(args[0])
	if _, ok := c.r.w.Entity(id); !ok {
		return fmt.Errorf("reduce %s: %w", id, ecs.ErrNoEntity)
	}
	if err := c.r.w.Durability().Reduce(id, amount); err != nil {
		return err
	}
	if e, ok := c.r.w.Entity(id); ok {
		c.describe(e)
	} else {
		fmt.Fprintf(c.out, "%s exhausted\n", id)
	}
	return nil
}

func (c *console) cmdStep(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: step <ms>")
	}
	ms, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || ms <= 0 {
		return fmt.Errorf("bad duration %q", args[0])
	}
	n := c.r.advance(ms)
	fmt.Fprintf(c.out, "now=%dms decayed=%d\n", c.r.nowMs, n)
	return nil
}

func (c *console) cmdDecay() error {
	s := c.r.w.Durability().Scheduler()
	due := s.LastFiredAt() + s.IntervalMs() + 1
	dt := due - c.r.nowMs
	if dt <= 0 {
		dt = 1
	}
	n := c.r.advance(dt)
	fmt.Fprintf(c.out, "now=%dms decayed=%d\n", c.r.nowMs, n)
	return nil
}

func (c *console) cmdInspect(args []string) error {
	var (
		e  *ecs.Entity
		ok bool
	)
	switch len(args) {
	case 1:
		e, ok = c.r.w.Entity(ecs.ID(args[0]))
	case 3:
		pos, err := parsePos(args)
		if err != nil {
			return err
		}
		e, ok = c.r.w.BlockEntityAt(pos)
	default:
		return fmt.Errorf("usage: inspect <entity> | <x> <y> <z>")
	}
	if !ok {
		return ecs.ErrNoEntity
	}
	c.describe(e)
	return nil
}

func (c *console) cmdBlocks() error {
	cells := c.r.w.Cells()
	if len(cells) == 0 {
		fmt.Fprintln(c.out, "No placed blocks")
		return nil
	}
	for _, p := range cells {
		e, _ := c.r.w.BlockEntityAt(p)
		c.describe(e)
	}
	return nil
}

func (c *console) describe(e *ecs.Entity) {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s", e.ID())
	if it, ok := ecs.Get[model.Item](e); ok {
		fmt.Fprintf(&b, " item=%s x%d", it.ItemID, it.Count)
	}
	if blk, ok := ecs.Get[model.Block](e); ok {
		fmt.Fprintf(&b, " block=%s at %s", blk.BlockID, blk.Pos)
	}
	if st, ok := ecs.Get[model.Durability](e); ok {
		tip := durability.Tooltip(*st)
		fmt.Fprintf(&b, " %s", tip.Text)
		if durability.ShowBar(*st) {
			fmt.Fprintf(&b, " bar=%.2f rgb(%d,%d,%d)", durability.Fraction(*st), tip.Color.R, tip.Color.G, tip.Color.B)
		}
	}
	if ecs.Has[model.OverTimeReduce](e) {
		b.WriteString(" decays")
	}
	if ecs.Has[model.RetainDurability](e) {
		b.WriteString(" retains")
	}
	fmt.Fprintln(c.out, b.String())
}

func parsePos(args []string) (world.Vec3i, error) {
	var v [3]int
	for i := 0; i < 3; i++ {
		n, err := strconv.Atoi(args[i])
		if err != nil {
			return world.Vec3i{}, fmt.Errorf("bad coordinate %q", args[i])
		}
		v[i] = n
	}
	return world.Vec3i{X: v[0], Y: v[1], Z: v[2]}, nil
}
