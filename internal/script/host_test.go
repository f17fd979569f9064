// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Hostbind Contributors

package script_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/oops"

	"github.com/hostbind/hostbind/internal/enginesim"
	"github.com/hostbind/hostbind/internal/script"
	"github.com/hostbind/hostbind/pkg/classes"
	"github.com/hostbind/hostbind/pkg/obj"
	"github.com/hostbind/hostbind/pkg/sys"
	"github.com/hostbind/hostbind/pkg/variant"
)

func errorCode(err error) string {
	o, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code, _ := o.Code().(string)
	return code
}

var _ = Describe("Host", func() {
	var (
		engine   *enginesim.Engine
		enforcer *script.Enforcer
		host     *script.Host
		ctx      context.Context
	)

	BeforeEach(func() {
		var err error
		engine, err = enginesim.New(nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(sys.Load(engine.Interface())).To(Succeed())
		DeferCleanup(sys.Unload)

		enforcer, err = script.NewEnforcer("**")
		Expect(err).NotTo(HaveOccurred())
		host = script.NewHost(script.WithEnforcer(enforcer))
		DeferCleanup(func() {
			Expect(host.Close(context.Background())).To(Succeed())
		})
		ctx = context.Background()
	})

	run := func(code string) []variant.Variant {
		GinkgoHelper()
		res, err := host.Run(ctx, "test", code)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(res.Release)
		return res.Values
	}

	Describe("return values", func() {
		It("converts scalars", func() {
			vals := run(`return 1, 2.5, "x", true, nil`)
			Expect(vals).To(Equal([]variant.Variant{
				variant.Int(1), variant.Float(2.5), variant.String("x"), variant.Bool(true), variant.Nil(),
			}))
		})

		It("converts sequences to arrays and other tables to dictionaries", func() {
			vals := run(`return {1, "two"}, {hp = 10}, {}`)
			Expect(vals).To(HaveLen(3))

			arr, err := vals[0].ToArray()
			Expect(err).NotTo(HaveOccurred())
			Expect(arr.Elements()).To(Equal([]variant.Variant{variant.Int(1), variant.String("two")}))

			dict, err := vals[1].ToDictionary()
			Expect(err).NotTo(HaveOccurred())
			hp, ok := dict.Get(variant.String("hp"))
			Expect(ok).To(BeTrue())
			Expect(hp).To(Equal(variant.Int(10)))

			Expect(vals[2].Type()).To(Equal(sys.VariantArray))
		})

		It("converts value constructors to engine value types", func() {
			vals := run(`return engine.vector2(1, 2), engine.vector3(1, 2, 3), engine.color(1, 0, 0)`)
			Expect(vals).To(Equal([]variant.Variant{
				variant.Vec2(1, 2), variant.Vec3(1, 2, 3), variant.RGBA(1, 0, 0, 1),
			}))
		})

		It("rejects values the engine cannot hold", func() {
			_, err := host.Run(ctx, "test", `return function() end`)
			Expect(err).To(MatchError(ContainSubstring("a Lua function cannot be passed to the engine")))
			Expect(errorCode(err)).To(Equal("SCRIPT_FAILED"))
		})

		It("rejects cyclic tables", func() {
			_, err := host.Run(ctx, "test", `local t = {}; t.self = t; return t`)
			Expect(err).To(MatchError(ContainSubstring("nested deeper than 64 levels")))
		})
	})

	Describe("objects", func() {
		It("constructs objects and calls their methods", func() {
			vals := run(`
				local n = engine.new("Node3D")
				n:call("set_name", "Camera")
				n:call("translate", engine.vector3(1, 2, 3))
				local p = n:call("get_position")
				local name = n:call("get_name")
				local class = n:class()
				n:free()
				return name, p.x + p.y + p.z, class, n:is_alive()
			`)
			Expect(vals).To(Equal([]variant.Variant{
				variant.String("Camera"), variant.Int(6), variant.String("Node3D"), variant.Bool(false),
			}))
			Expect(engine.Stats().Live).To(BeZero())
		})

		It("returns objects that outlive the run", func() {
			res, err := host.Run(ctx, "test", `
				local r = engine.new("Resource")
				r:call("set_path", "res://a.tres")
				return r
			`)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Values).To(HaveLen(1))

			g, err := obj.FromVariant[classes.Resource](res.Values[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(obj.Deref(g).GetPath()).To(Equal("res://a.tres"))
			Expect(g.ReferenceCount()).To(Equal(int32(2)))

			res.Release()
			Expect(g.ReferenceCount()).To(Equal(int32(1)))
			g.Drop()
			Expect(engine.Stats().Live).To(BeZero())
		})

		It("drops handles the script leaves behind", func() {
			run(`
				local r = engine.new("Resource")
				local again = engine.get(r:id())
				local base = r:cast("RefCounted")
			`)
			Expect(engine.Stats().Live).To(BeZero())
		})

		It("reports call errors to the script", func() {
			vals := run(`
				local n = engine.new("Node")
				local v, err = n:call("fly")
				n:free()
				return v, err
			`)
			Expect(vals).To(HaveLen(2))
			Expect(vals[0].IsNil()).To(BeTrue())
			msg, err := vals[1].ToString()
			Expect(err).NotTo(HaveOccurred())
			Expect(msg).To(ContainSubstring(`Object::call("fly"): method not found`))
		})

		It("casts within the class hierarchy", func() {
			vals := run(`
				local n = engine.new("Node3D")
				local res, err = n:cast("Resource")
				local node = n:cast("Node")
				local unknown, uerr = n:cast("Spaceship")
				local same = node == n
				n:free()
				return res == nil, err, tostring(node):sub(1, 6), same, uerr
			`)
			Expect(vals).To(HaveLen(5))
			Expect(vals[0]).To(Equal(variant.Bool(true)))
			msg, _ := vals[1].ToString()
			Expect(msg).To(MatchRegexp(`^cannot cast <Node3D#\d+> \(a Node3D\) to Resource$`))
			Expect(vals[2]).To(Equal(variant.String("<Node#")))
			Expect(vals[3]).To(Equal(variant.Bool(true)))
			Expect(vals[4]).To(Equal(variant.String("unknown class Spaceship")))
		})

		It("checks casts with the host even without the class lookups", func() {
			sys.Unload()
			iface := *engine.Interface()
			iface.ObjectGetClassName = nil
			iface.ClassDBGetParentClass = nil
			Expect(sys.Load(&iface)).To(Succeed())

			vals := run(`
				local n = engine.new("Node3D")
				local res, err = n:cast("Resource")
				local node = n:cast("Node")
				local ok = node ~= nil and node:is_alive()
				n:free()
				return res == nil, err, ok
			`)
			Expect(vals[0]).To(Equal(variant.Bool(true)))
			msg, _ := vals[1].ToString()
			Expect(msg).To(MatchRegexp(`^cannot cast <Node3D#\d+> \(a Node3D\) to Resource$`))
			Expect(vals[2]).To(Equal(variant.Bool(true)))
		})

		It("resolves objects by instance ID", func() {
			Expect(engine.SetNextInstanceID(42)).To(Succeed())
			vals := run(`
				local n = engine.new("Node")
				n:call("set_name", "Root")
				local id = n:id()
				local found = engine.get(id)
				local name = found:call("get_name")
				n:free()
				local gone, err = engine.get(id)
				return id, name, gone, err
			`)
			Expect(vals[0]).To(Equal(variant.String("42")))
			Expect(vals[1]).To(Equal(variant.String("Root")))
			Expect(vals[2].IsNil()).To(BeTrue())
			msg, _ := vals[3].ToString()
			Expect(msg).To(ContainSubstring("after it has been freed"))
		})

		It("turns use of a freed object into a script error", func() {
			if !sys.Checked {
				Skip("dead-object checks are compiled out of release builds")
			}
			_, err := host.Run(ctx, "test", `
				local n = engine.new("Node")
				local other = engine.get(n:id())
				n:free()
				return other:class()
			`)
			Expect(err).To(MatchError(ContainSubstring("after it has been freed")))

			_, err = host.Run(ctx, "test", `
				local n = engine.new("Node")
				n:free()
				return n:class()
			`)
			Expect(err).To(MatchError(ContainSubstring("use of object after free")))
		})

		It("refuses to free reference-counted objects", func() {
			_, err := host.Run(ctx, "test", `engine.new("Resource"):free()`)
			Expect(err).To(MatchError(ContainSubstring("free() is only supported for manually managed types")))
			Expect(engine.Stats().Live).To(BeZero())
		})

		It("reports abstract classes", func() {
			vals := run(`return engine.new("CanvasItem")`)
			Expect(vals).To(HaveLen(2))
			Expect(vals[1]).To(Equal(variant.String("failed to construct object of class CanvasItem")))
		})
	})

	Describe("capabilities", func() {
		BeforeEach(func() {
			Expect(enforcer.SetDefaultGrants([]string{"engine.new.*", "object.*.get_*"})).To(Succeed())
		})

		It("denies calls outside the grants", func() {
			_, err := host.Run(ctx, "limited", `
				local r = engine.new("Resource")
				r:call("get_path")
				r:call("set_path", "res://x")
			`)
			Expect(err).To(MatchError(ContainSubstring("capability denied: limited requires object.Resource.set_path")))
			Expect(errorCode(err)).To(Equal("CAPABILITY_DENIED"))
			Expect(engine.Stats().Live).To(BeZero())
		})

		It("checks calls against the class the script casts to", func() {
			Expect(enforcer.SetGrants("narrow", []string{"engine.new.Node3D", "object.Node.*"})).To(Succeed())
			_, err := host.Run(ctx, "narrow", `
				local n = engine.new("Node3D")
				n:cast("Node"):free()
			`)
			Expect(err).NotTo(HaveOccurred())

			_, err = host.Run(ctx, "narrow", `engine.new("Node3D"):free()`)
			Expect(err).To(MatchError(ContainSubstring("requires object.Node3D.free")))
		})

		It("lets scripts recover from a denial", func() {
			vals := run(`
				local ok, err = pcall(function() return engine.get("1") end)
				return ok, string.find(err, "capability denied", 1, true) ~= nil
			`)
			Expect(vals).To(Equal([]variant.Variant{variant.Bool(false), variant.Bool(true)}))

			_, err := host.Run(ctx, "test", `
				pcall(function() return engine.get("1") end)
				error("unrelated")
			`)
			Expect(errorCode(err)).To(Equal("SCRIPT_FAILED"))
		})

		It("denies everything without an enforcer", func() {
			bare := script.NewHost()
			_, err := bare.Run(ctx, "test", `engine.new("Node")`)
			Expect(err).To(MatchError(ContainSubstring("requires engine.new.Node")))
		})
	})

	Describe("sandbox", func() {
		It("hides libraries that reach outside the process", func() {
			vals := run(`return os == nil, io == nil, debug == nil, load == nil, dofile == nil, require == nil`)
			for _, v := range vals {
				Expect(v).To(Equal(variant.Bool(true)))
			}
		})

		It("stops runs that exceed the timeout", func() {
			slow := script.NewHost(script.WithEnforcer(enforcer), script.WithTimeout(50*time.Millisecond))
			_, err := slow.Run(ctx, "spin", `while true do end`)
			Expect(err).To(MatchError(context.DeadlineExceeded))
			Expect(errorCode(err)).To(Equal("SCRIPT_TIMEOUT"))
		})

		It("stops runs when the context is canceled", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := host.Run(canceled, "spin", `while true do end`)
			Expect(err).To(MatchError(context.Canceled))
			Expect(errorCode(err)).To(Equal("SCRIPT_CANCELED"))
		})

		It("reports syntax errors", func() {
			_, err := host.Run(ctx, "broken", `return (`)
			Expect(err).To(HaveOccurred())
			Expect(errorCode(err)).To(Equal("SCRIPT_FAILED"))
		})
	})

	It("identifies each run", func() {
		first, err := host.Run(ctx, "test", `return engine.run_id()`)
		Expect(err).NotTo(HaveOccurred())
		second, err := host.Run(ctx, "test", `return engine.run_id()`)
		Expect(err).NotTo(HaveOccurred())

		Expect(first.Values[0]).To(Equal(variant.String(first.ID.String())))
		Expect(first.ID).NotTo(Equal(second.ID))
	})

	It("refuses to run after Close", func() {
		Expect(host.Close(ctx)).To(Succeed())
		_, err := host.Run(ctx, "test", `return 1`)
		Expect(err).To(MatchError(ContainSubstring("host is closed")))
	})
})
