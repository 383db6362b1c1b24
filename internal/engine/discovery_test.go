package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/logrename/internal/config"
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/methodref"
	"github.com/roach88/logrename/internal/program"
	"github.com/roach88/logrename/internal/testutil"
)

var (
	loggerDesc = ir.ObjectDescriptor(testutil.LoggerClass)
	apiDesc    = ir.ObjectDescriptor(testutil.APIClass)
	siteArgs   = []string{ir.StringDescriptor, ir.StringDescriptor, ir.IntDescriptor, ir.StringDescriptor}
)

func TestDiscoverFactory(t *testing.T) {
	p := program.New()
	testutil.AddFlogger(p)

	ref, err := DiscoverFactory(p, config.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, methodref.MustParse(testutil.FactoryRef), ref)
}

func TestDiscoverFactory_DeclarationOrderIndependent(t *testing.T) {
	build := func(order []string) *program.Program {
		p := program.New()
		c := p.AddClass(program.ClassSpec{Name: testutil.LoggerClass})
		specs := map[string]program.MethodSpec{
			"a": {Name: "a", Args: []string{ir.IntDescriptor}, Return: loggerDesc, Static: true},
			"b": {Name: "b", Args: []string{ir.StringDescriptor}, Return: loggerDesc, Static: true},
			"c": {Name: "c", Args: []string{ir.StringDescriptor}, Return: "Ljava/lang/Object;", Static: true},
			"d": {Name: "d", Args: []string{ir.StringDescriptor}, Return: loggerDesc},
		}
		for _, name := range order {
			c.AddMethod(specs[name])
		}
		return p
	}

	for _, order := range [][]string{
		{"a", "b", "c", "d"},
		{"d", "c", "b", "a"},
		{"c", "a", "d", "b"},
	} {
		ref, err := DiscoverFactory(build(order), config.DefaultProfile())
		require.NoError(t, err, "order %v", order)
		assert.Equal(t, "b", ref.Name, "order %v", order)
		assert.True(t, ref.HasSignature)
	}
}

func TestDiscoverFactory_Failures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(p *program.Program)
		code  ErrorCode
	}{
		{
			name:  "logger class absent",
			setup: func(p *program.Program) {},
			code:  ErrCodeDiscoveryClassAbsent,
		},
		{
			name: "no candidate",
			setup: func(p *program.Program) {
				c := p.AddClass(program.ClassSpec{Name: testutil.LoggerClass})
				c.AddMethod(program.MethodSpec{Name: "a", Args: []string{ir.StringDescriptor}, Return: loggerDesc})
				c.AddMethod(program.MethodSpec{Name: "b", Args: []string{ir.StringDescriptor, ir.StringDescriptor}, Return: loggerDesc, Static: true})
			},
			code: ErrCodeDiscoveryNoCandidate,
		},
		{
			name: "two candidates",
			setup: func(p *program.Program) {
				c := p.AddClass(program.ClassSpec{Name: testutil.LoggerClass})
				c.AddMethod(program.MethodSpec{Name: "a", Args: []string{ir.StringDescriptor}, Return: loggerDesc, Static: true})
				c.AddMethod(program.MethodSpec{Name: "b", Args: []string{ir.StringDescriptor}, Return: loggerDesc, Static: true})
			},
			code: ErrCodeDiscoveryAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program.New()
			tt.setup(p)

			ref, err := DiscoverFactory(p, config.DefaultProfile())
			require.Error(t, err)
			assert.True(t, IsDiscoveryError(err))
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, methodref.Ref{}, ref)
		})
	}
}

func TestDiscoverFactory_CustomProfile(t *testing.T) {
	p := program.New()
	c := p.AddClass(program.ClassSpec{Name: "org.log.Logger"})
	c.AddMethod(program.MethodSpec{
		Name:   "get",
		Args:   []string{ir.StringDescriptor},
		Return: "Lorg/log/Logger;",
		Static: true,
	})

	profile := config.DefaultProfile()
	profile.LoggerClass = "org/log/Logger"

	ref, err := DiscoverFactory(p, profile)
	require.NoError(t, err)
	assert.Equal(t, "org/log/Logger->get(Ljava/lang/String;)Lorg/log/Logger;", ref.String())
}

func TestDiscoverLocation(t *testing.T) {
	p := program.New()
	lib := testutil.AddFlogger(p)

	ref, iface, err := DiscoverLocation(p, config.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, methodref.MustParse(testutil.LocationRef), ref)
	assert.Same(t, lib.API, iface)
}

func TestDiscoverLocation_Failures(t *testing.T) {
	addBase := func(p *program.Program, returns ...string) {
		c := p.AddClass(program.ClassSpec{Name: testutil.BaseLoggerClass, Abstract: true})
		for i, ret := range returns {
			c.AddMethod(program.MethodSpec{
				Name:   string(rune('a' + i)),
				Args:   []string{testutil.LevelDescriptor},
				Return: ret,
				NoCode: true,
			})
		}
	}
	addAPI := func(p *program.Program, name string, setters ...string) {
		c := p.AddClass(program.ClassSpec{Name: name, Interface: true})
		for _, s := range setters {
			c.AddMethod(program.MethodSpec{Name: s, Args: siteArgs, Return: ir.ObjectDescriptor(name), NoCode: true})
		}
	}

	tests := []struct {
		name  string
		setup func(p *program.Program)
		code  ErrorCode
	}{
		{
			name:  "base class absent",
			setup: func(p *program.Program) {},
			code:  ErrCodeDiscoveryClassAbsent,
		},
		{
			name: "no level method",
			setup: func(p *program.Program) {
				c := p.AddClass(program.ClassSpec{Name: testutil.BaseLoggerClass})
				c.AddMethod(program.MethodSpec{Name: "a", Return: apiDesc})
			},
			code: ErrCodeDiscoveryNoCandidate,
		},
		{
			name: "level method returns unknown type",
			setup: func(p *program.Program) {
				addBase(p, "Lx/Missing;")
			},
			code: ErrCodeDiscoveryUnresolved,
		},
		{
			name: "level method returns a class",
			setup: func(p *program.Program) {
				addBase(p, "Lx/Concrete;")
				p.AddClass(program.ClassSpec{Name: "x.Concrete"})
			},
			code: ErrCodeDiscoveryUnresolved,
		},
		{
			name: "level methods disagree",
			setup: func(p *program.Program) {
				addBase(p, "Lx/One;", "Lx/Two;")
				addAPI(p, "x.One", "s")
				addAPI(p, "x.Two", "s")
			},
			code: ErrCodeDiscoveryAmbiguous,
		},
		{
			name: "interface without setter",
			setup: func(p *program.Program) {
				addBase(p, "Lx/Api;")
				addAPI(p, "x.Api")
			},
			code: ErrCodeDiscoveryNoCandidate,
		},
		{
			name: "interface with two setters",
			setup: func(p *program.Program) {
				addBase(p, "Lx/Api;")
				addAPI(p, "x.Api", "s", "t")
			},
			code: ErrCodeDiscoveryAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := program.New()
			tt.setup(p)

			ref, iface, err := DiscoverLocation(p, config.DefaultProfile())
			require.Error(t, err)
			assert.True(t, IsDiscoveryError(err))
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, methodref.Ref{}, ref)
			assert.Nil(t, iface)
		})
	}
}

func TestDiscoverLocation_SameInterfaceTwice(t *testing.T) {
	p := program.New()
	base := p.AddClass(program.ClassSpec{Name: testutil.BaseLoggerClass, Abstract: true})
	base.AddMethod(program.MethodSpec{Name: "a", Args: []string{testutil.LevelDescriptor}, Return: apiDesc, NoCode: true})
	base.AddMethod(program.MethodSpec{Name: "b", Args: []string{testutil.LevelDescriptor}, Return: apiDesc, NoCode: true})
	api := p.AddClass(program.ClassSpec{Name: testutil.APIClass, Interface: true})
	api.AddMethod(program.MethodSpec{Name: "j", Args: siteArgs, Return: apiDesc, NoCode: true})

	ref, iface, err := DiscoverLocation(p, config.DefaultProfile())
	require.NoError(t, err)
	assert.Equal(t, "j", ref.Name)
	assert.Same(t, api, iface)
}
