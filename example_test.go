package binpack_test

import (
	"fmt"
	"log"

	"github.com/wippyai/binpack"
)

func ExampleSerialize() {
	type Point struct{ X, Y int32 }

	data, err := binpack.Serialize([]Point{{1, 2}, {3, 4}})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(data))

	points, err := binpack.Deserialize[[]Point](data)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(points)
	// Output:
	// 20
	// [{1 2} {3 4}]
}

func ExampleDeserialize_absent() {
	var name *string
	data, _ := binpack.Serialize(name)
	fmt.Printf("% x\n", data)

	back, _ := binpack.Deserialize[*string](data)
	fmt.Println(back == nil)
	// Output:
	// ff ff ff ff
	// true
}
