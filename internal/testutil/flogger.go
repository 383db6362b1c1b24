package testutil

import (
	"github.com/roach88/logrename/internal/ir"
	"github.com/roach88/logrename/internal/program"
)

// Names of the fabricated Flogger library.
const (
	LoggerClass     = "com.google.common.flogger.GoogleLogger"
	BaseLoggerClass = "com.google.common.flogger.AbstractLogger"
	APIClass        = "com.google.common.flogger.LoggingApi"
	// APIBaseClass implements APIClass; APIImplClass extends it.
	APIBaseClass = "com.google.common.flogger.b"
	APIImplClass = "com.google.common.flogger.c"

	LevelDescriptor = "Ljava/util/logging/Level;"

	// FactoryRef is the logger factory: GoogleLogger.c(String).
	FactoryRef = "com/google/common/flogger/GoogleLogger->c(Ljava/lang/String;)Lcom/google/common/flogger/GoogleLogger;"

	// LocationRef is the log-site setter on the interface.
	LocationRef = "com/google/common/flogger/LoggingApi->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;"

	// ImplLocationRef is the setter as called through the implementation.
	ImplLocationRef = "com/google/common/flogger/c->j(Ljava/lang/String;Ljava/lang/String;ILjava/lang/String;)Lcom/google/common/flogger/LoggingApi;"
)

var (
	loggerDesc = ir.ObjectDescriptor(LoggerClass)
	apiDesc    = ir.ObjectDescriptor(APIClass)
	siteArgs   = []string{ir.StringDescriptor, ir.StringDescriptor, ir.IntDescriptor, ir.StringDescriptor}
)

// Flogger is the fabricated library inside a program.
type Flogger struct {
	Logger  *program.Class
	Base    *program.Class
	API     *program.Class
	APIBase *program.Class
	APIImpl *program.Class
}

// AddFlogger adds the library shape discovery expects:
//
//   - GoogleLogger extends AbstractLogger and has exactly one static
//     (String) method returning GoogleLogger, next to near misses
//   - AbstractLogger.e(Level) returns the LoggingApi interface
//   - LoggingApi.j(String, String, int, String) returns LoggingApi, next
//     to an overload with the same arguments returning void
//   - c extends b, which implements LoggingApi
func AddFlogger(p *program.Program) Flogger {
	f := Flogger{}

	f.Base = p.AddClass(program.ClassSpec{Name: BaseLoggerClass, Abstract: true})
	f.Base.AddMethod(program.MethodSpec{Name: "e", Args: []string{LevelDescriptor}, Return: apiDesc, NoCode: true})
	f.Base.AddMethod(program.MethodSpec{Name: "f", Return: apiDesc, NoCode: true})

	f.Logger = p.AddClass(program.ClassSpec{Name: LoggerClass, Supertypes: []string{BaseLoggerClass}})
	f.Logger.AddMethod(program.MethodSpec{Name: ir.ConstructorName, Args: []string{"Ljava/lang/Object;"}})
	f.Logger.AddMethod(program.MethodSpec{Name: "d", Args: []string{ir.IntDescriptor}, Return: loggerDesc, Static: true})
	f.Logger.AddMethod(program.MethodSpec{Name: "c", Args: []string{ir.StringDescriptor}, Return: loggerDesc, Static: true})
	f.Logger.AddMethod(program.MethodSpec{Name: "g", Args: []string{ir.StringDescriptor}, Return: loggerDesc})

	f.API = p.AddClass(program.ClassSpec{Name: APIClass, Interface: true, Abstract: true})
	f.API.AddMethod(program.MethodSpec{Name: "k", Args: []string{ir.StringDescriptor}, NoCode: true})
	f.API.AddMethod(program.MethodSpec{Name: "l", Args: siteArgs, NoCode: true})
	f.API.AddMethod(program.MethodSpec{Name: "j", Args: siteArgs, Return: apiDesc, NoCode: true})

	f.APIBase = p.AddClass(program.ClassSpec{Name: APIBaseClass, Abstract: true, Supertypes: []string{APIClass}})
	f.APIImpl = p.AddClass(program.ClassSpec{Name: APIImplClass, Supertypes: []string{APIBaseClass}})

	return f
}
